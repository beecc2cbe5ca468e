// Package stbi is a stand-in for a memory-buffer image loader.
//
// It keeps the loader's two-call boundary but never decodes anything:
// every load reports failure with zeroed dimensions. Builds that need
// real image support must swap this package out.
package stbi

// Desired channel counts accepted by LoadFromMemory.
const (
	Default   = 0 // keep whatever the file has
	Grey      = 1
	GreyAlpha = 2
	RGB       = 3
	RGBAlpha  = 4
)

const failureReason = "image decoding not supported in this build"

// LoadFromMemory decodes length bytes of buffer into an owned pixel
// buffer and writes the image width, height and channel count in the
// file to x, y and channelsInFile. Nil output locations are skipped.
//
// This build cannot decode: it zeroes every output it is given and
// returns nil for any input.
func LoadFromMemory(buffer []byte, length int, x, y, channelsInFile *int, desiredChannels int) []byte {
	if x != nil {
		*x = 0
	}
	if y != nil {
		*y = 0
	}
	if channelsInFile != nil {
		*channelsInFile = 0
	}
	return nil
}

// ImageFree releases a buffer returned by LoadFromMemory. Nil is a no-op.
func ImageFree(retval []byte) {}

// FailureReason describes why the last load returned nil.
func FailureReason() string {
	return failureReason
}
