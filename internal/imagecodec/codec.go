// Package imagecodec converts attached images to a storage-safe text form
// and back. The text form is a base64 data URL, the same shape a browser
// FileReader produces, so drafts written by other clients stay readable.
package imagecodec

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"
)

const (
	dataURLPrefix   = "data:"
	base64Marker    = ";base64"
	defaultNameHint = "image"
)

// Image is an in-memory binary image handle.
type Image struct {
	Name string
	MIME string
	Data []byte
}

// CodecError reports encoded image text that could not be turned back into
// image bytes, or an image that could not be encoded.
type CodecError struct {
	Index int
	Op    string
	Err   error
}

func (e *CodecError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("imagecodec: %s image %d: %v", e.Op, e.Index, e.Err)
	}
	return fmt.Sprintf("imagecodec: %s: %v", e.Op, e.Err)
}

func (e *CodecError) Unwrap() error { return e.Err }

// Encode returns the data URL form of img.
func Encode(ctx context.Context, img Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(img.Data) == 0 {
		return "", &CodecError{Index: -1, Op: "encode", Err: errors.New("image is empty")}
	}
	mime := strings.TrimSpace(img.MIME)
	if mime == "" {
		mime = detectMIME(img.Data)
	}
	var b strings.Builder
	b.Grow(len(dataURLPrefix) + len(mime) + len(base64Marker) + 1 + base64.StdEncoding.EncodedLen(len(img.Data)))
	b.WriteString(dataURLPrefix)
	b.WriteString(mime)
	b.WriteString(base64Marker)
	b.WriteByte(',')
	b.WriteString(base64.StdEncoding.EncodeToString(img.Data))
	return b.String(), nil
}

// Decode reconstructs an image from a data URL or bare base64 text. The
// returned name is nameHint plus the extension of the detected type.
func Decode(ctx context.Context, text, nameHint string) (Image, error) {
	if err := ctx.Err(); err != nil {
		return Image{}, err
	}
	payload, declared, err := splitDataURL(strings.TrimSpace(text))
	if err != nil {
		return Image{}, &CodecError{Index: -1, Op: "decode", Err: err}
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, &CodecError{Index: -1, Op: "decode", Err: err}
	}
	if len(data) == 0 {
		return Image{}, &CodecError{Index: -1, Op: "decode", Err: errors.New("image is empty")}
	}
	mime := declared
	if mime == "" {
		mime = detectMIME(data)
	}
	return Image{
		Name: fileName(nameHint, mime),
		MIME: mime,
		Data: data,
	}, nil
}

// DecodeAll decodes every text concurrently, preserving order. The first
// failure is returned as a *CodecError carrying the text's index. Callers that
// want to skip failures use DecodeEach.
func DecodeAll(ctx context.Context, texts []string, nameHint string) ([]Image, error) {
	out := make([]Image, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	for i, text := range texts {
		g.Go(func() error {
			img, err := Decode(gctx, text, numberedHint(nameHint, i, len(texts)))
			if err != nil {
				return indexed(err, i, "decode")
			}
			out[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// EncodeEach encodes every image concurrently and keeps going past
// individual failures. The successful encodings are returned in input
// order; failures are reported per index.
func EncodeEach(ctx context.Context, images []Image) ([]string, []*CodecError) {
	results := make([]string, len(images))
	errs := make([]error, len(images))
	var g errgroup.Group
	for i, img := range images {
		g.Go(func() error {
			results[i], errs[i] = Encode(ctx, img)
			return nil
		})
	}
	_ = g.Wait()
	return compact(results, errs, "encode")
}

// DecodeEach decodes every text concurrently and keeps going past
// individual failures. Successful images are returned in input order.
func DecodeEach(ctx context.Context, texts []string, nameHint string) ([]Image, []*CodecError) {
	results := make([]Image, len(texts))
	errs := make([]error, len(texts))
	var g errgroup.Group
	for i, text := range texts {
		g.Go(func() error {
			results[i], errs[i] = Decode(ctx, text, numberedHint(nameHint, i, len(texts)))
			return nil
		})
	}
	_ = g.Wait()
	return compact(results, errs, "decode")
}

func compact[T any](results []T, errs []error, op string) ([]T, []*CodecError) {
	out := make([]T, 0, len(results))
	var failures []*CodecError
	for i, err := range errs {
		if err != nil {
			failures = append(failures, indexed(err, i, op))
			continue
		}
		out = append(out, results[i])
	}
	return out, failures
}

func indexed(err error, index int, op string) *CodecError {
	var codecErr *CodecError
	if errors.As(err, &codecErr) {
		clone := *codecErr
		clone.Index = index
		return &clone
	}
	return &CodecError{Index: index, Op: op, Err: err}
}

func splitDataURL(text string) (payload, mime string, err error) {
	if text == "" {
		return "", "", errors.New("empty image text")
	}
	if !strings.HasPrefix(text, dataURLPrefix) {
		return text, "", nil
	}
	header, body, ok := strings.Cut(text[len(dataURLPrefix):], ",")
	if !ok {
		return "", "", errors.New("data url has no payload")
	}
	if !strings.HasSuffix(header, base64Marker) {
		return "", "", fmt.Errorf("data url is not base64 encoded: %q", header)
	}
	return body, strings.TrimSuffix(header, base64Marker), nil
}

func detectMIME(data []byte) string {
	return mimetype.Detect(data).String()
}

func fileName(hint, mime string) string {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		hint = defaultNameHint
	}
	if strings.Contains(hint, ".") {
		return hint
	}
	if m := mimetype.Lookup(mime); m != nil && m.Extension() != "" {
		return hint + m.Extension()
	}
	return hint
}

func numberedHint(hint string, index, total int) string {
	if total <= 1 {
		return hint
	}
	if strings.TrimSpace(hint) == "" {
		hint = defaultNameHint
	}
	return fmt.Sprintf("%s-%d", hint, index+1)
}
