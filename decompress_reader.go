package lgqc

import "io"

// DecompressAll reads the full compressed stream from r and pumps it through
// a fresh Decompressor end to end, returning the whole decompressed output.
// No decoding logic of its own — a thin io.Reader wrapper, in the same
// spirit as the teacher's DecompressFromReader.
func DecompressAll(r io.Reader, opts *Options) ([]byte, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	d := New(opts)
	out, err := d.Feed(src)
	if err != nil {
		return nil, err
	}
	for d.HasMore() {
		more, err := d.Feed(nil)
		if err != nil {
			return nil, err
		}
		out = append(out, more...)
	}
	return out, nil
}
