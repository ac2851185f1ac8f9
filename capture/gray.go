package capture

import (
	"fmt"
	"image"

	"github.com/Feras-dev/mscs-thesis/videosource"
)

// rgbaFromFrame converts packed RGB24 frame data to image.RGBA (adds an
// opaque alpha channel).
func rgbaFromFrame(frame videosource.Frame) (*image.RGBA, error) {
	expected := frame.Width * frame.Height * 3
	if len(frame.Data) != expected {
		return nil, fmt.Errorf("capture: invalid RGB data size: got %d, expected %d",
			len(frame.Data), expected)
	}

	img := image.NewRGBA(image.Rect(0, 0, frame.Width, frame.Height))
	for i := 0; i < frame.Width*frame.Height; i++ {
		img.Pix[i*4+0] = frame.Data[i*3+0]
		img.Pix[i*4+1] = frame.Data[i*3+1]
		img.Pix[i*4+2] = frame.Data[i*3+2]
		img.Pix[i*4+3] = 255
	}

	return img, nil
}

// grayFromFrame converts packed RGB24 frame data to a single-channel
// image.Gray using ITU-R BT.601 luma weights, the same rounding the
// standard library's color.GrayModel applies.
func grayFromFrame(frame videosource.Frame) (*image.Gray, error) {
	expected := frame.Width * frame.Height * 3
	if len(frame.Data) != expected {
		return nil, fmt.Errorf("capture: invalid RGB data size: got %d, expected %d",
			len(frame.Data), expected)
	}

	img := image.NewGray(image.Rect(0, 0, frame.Width, frame.Height))
	for i := 0; i < frame.Width*frame.Height; i++ {
		// Channels expanded to 16 bit, 0.299 R + 0.587 G + 0.114 B,
		// matching color.GrayModel bit for bit.
		r := uint32(frame.Data[i*3+0]) * 0x101
		g := uint32(frame.Data[i*3+1]) * 0x101
		b := uint32(frame.Data[i*3+2]) * 0x101
		img.Pix[i] = uint8((19595*r + 38470*g + 7471*b + 1<<15) >> 24)
	}

	return img, nil
}

// degenerateImage is what gets persisted when the device yielded an
// empty or malformed buffer: a 1x1 black pixel, so the session still
// produces exactly one file per capture slot.
func degenerateImage() *image.Gray {
	return image.NewGray(image.Rect(0, 0, 1, 1))
}
