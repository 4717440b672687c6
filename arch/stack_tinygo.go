//go:build tinygo

package arch

func captureStack() []byte {
	return nil
}
