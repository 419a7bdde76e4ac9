// Package image loads firmware images for upload.
//
// An image is read whole into memory and its SHA-256 digest is computed once,
// when the Image is created. The digest travels with the first upload chunk
// and lets the device verify the transfer.
//
// # Compressed Images
//
// Files ending in .lz4, or whose content starts with the lz4 frame magic,
// are decompressed while loading:
//
//	img, err := image.Load("zephyr.signed.bin.lz4")
//
// # MCUboot Header
//
// Images produced by imgtool start with an MCUboot header. When present it is
// parsed so the version can be shown before uploading:
//
//	if img.Header != nil {
//	    fmt.Println("version", img.Header.Version)
//	}
//
// A missing header is not an error; any non-empty byte sequence can be uploaded.
package image
