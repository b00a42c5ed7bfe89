//go:build !linux

package realtime

func promote(p Params) (*Handle, error) {
	return nil, ErrUnsupported
}
