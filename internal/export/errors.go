package export

import "errors"

var (
	errNoImage     = errors.New("export: no image")
	errEncodePanic = errors.New("export: png encoder panicked")
)
