package export

import (
	"bytes"
	"image"
	"image/png"
)

// EncodeRaster encodes img as PNG on its own goroutine. The channel yields
// the bytes, or nil when img is nil or encoding fails, and is then closed.
// Every call is an independent encode.
func EncodeRaster(img image.Image) <-chan []byte {
	out := make(chan []byte, 1)
	go func() {
		defer close(out)
		data, err := encodePNG(img)
		if err != nil {
			out <- nil
			return
		}
		out <- data
	}()
	return out
}

func encodePNG(img image.Image) (data []byte, err error) {
	if img == nil {
		return nil, errNoImage
	}
	defer func() {
		if r := recover(); r != nil {
			data, err = nil, errEncodePanic
		}
	}()

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
