package convert

// verticalUpscale duplicates each row of the first-pass image vTimes times
// into dst, starting right after the first-pass region.
func verticalUpscale(dst []byte, img Image, vTimes int) Image {
	if vTimes <= 1 {
		return img
	}

	rowBytes := img.Width * img.Format.BytesPerTexel()
	base := rowBytes * img.Height
	o := base
	for y := 0; y < img.Height; y++ {
		row := dst[y*rowBytes : (y+1)*rowBytes]
		for k := 0; k < vTimes; k++ {
			copy(dst[o:o+rowBytes], row)
			o += rowBytes
		}
	}

	img.Data = dst[base:o]
	img.Height *= vTimes
	return img
}
