//go:build !opus

package audioconv

import (
	"fmt"
	"io"
)

func decodeOpus(io.ReadSeeker) ([]float32, error) {
	return nil, fmt.Errorf("%w: opus support needs -tags opus", ErrUnsupported)
}
