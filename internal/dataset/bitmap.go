package dataset

// PixelsToFloats averages the first three channels of every pixel in pix,
// which holds bytesPerPixel bytes per pixel, truncating to a whole
// intensity. The result is in [0, 255]. A bytesPerPixel below 1 yields an
// empty slice.
func PixelsToFloats(pix []byte, bytesPerPixel int) []float32 {
	if bytesPerPixel < 1 {
		return []float32{}
	}
	out := make([]float32, len(pix)/bytesPerPixel)
	for i := range out {
		p := pix[i*bytesPerPixel:]
		if bytesPerPixel < 3 {
			out[i] = float32(p[0])
			continue
		}
		out[i] = float32((int(p[0]) + int(p[1]) + int(p[2])) / 3)
	}
	return out
}

// Normalize divides every value by 255.
func Normalize(x []float32) []float32 {
	out := make([]float32, len(x))
	for i, v := range x {
		out[i] = v / 255
	}
	return out
}

// FromBitmap converts a raw bitmap, as captured from a drawing surface,
// into a network input.
func FromBitmap(pix []byte, bytesPerPixel int) []float32 {
	return Normalize(PixelsToFloats(pix, bytesPerPixel))
}
