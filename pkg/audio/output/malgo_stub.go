//go:build !malgo

// ABOUTME: Malgo host stub when miniaudio support is not compiled in
// ABOUTME: Provides a placeholder factory that reports how to enable it
package output

import "fmt"

func newMalgoHost() (Host, error) {
	return nil, fmt.Errorf("%w: malgo (build with -tags malgo)", ErrHostNotEnabled)
}
