package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// GetBodyFunc is the function signature of the http.Request.GetBody method.
type GetBodyFunc func() (io.ReadCloser, error)

// ReaderFunc is a type of function that can be given natively to NewRequest.
// It can be easily converted into a GetBodyFunc.
type ReaderFunc func() (io.Reader, error)

// GetBodyFunc decorates a ReaderFunc to be compatible with GetBodyFunc.
func (r ReaderFunc) GetBodyFunc() (io.ReadCloser, error) {
	tmp, err := r()
	if err != nil {
		return nil, err
	}
	return io.NopCloser(tmp), nil
}

// lenReader is an interface implemented by many in-memory io.Readers. Used
// for automatically sending the right Content-Length header when possible.
type lenReader interface{ Len() int }

// NewRequest creates a new rewindable http.Request.
//
// rawBody accepts several reader shapes and builds the optimal rewindable
// reader for each. The resulting request carries a GetBody function, which
// allows both the standard library and RetryableClient to replay the body
// on redirects and retries.
//
// If rawBody is nil, http.NewRequestWithContext is used directly.
func NewRequest(ctx context.Context, method, url string, rawBody any) (*http.Request, error) {
	if rawBody == nil {
		return http.NewRequestWithContext(ctx, method, url, nil)
	}

	readerFunc, contentLength, err := bodyReaderAndContentLength(rawBody)
	if err != nil {
		return nil, err
	}

	bodyReader, err := readerFunc()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, err
	}

	req.ContentLength = contentLength
	req.GetBody = readerFunc.GetBodyFunc

	return req, nil
}

func bodyReaderAndContentLength(rawBody any) (ReaderFunc, int64, error) {
	var bodyReader ReaderFunc
	var contentLength int64

	switch body := rawBody.(type) {
	case ReaderFunc:
		bodyReader = body
		tmp, err := body()
		if err != nil {
			return nil, 0, err
		}
		if lr, ok := tmp.(lenReader); ok {
			contentLength = int64(lr.Len())
		}
		if c, ok := tmp.(io.Closer); ok {
			_ = c.Close()
		}

	case func() (io.Reader, error):
		return bodyReaderAndContentLength(ReaderFunc(body))

	// A byte slice can be read over and over via new readers.
	case []byte:
		buf := body
		bodyReader = func() (io.Reader, error) {
			return bytes.NewReader(buf), nil
		}
		contentLength = int64(len(buf))

	// A bytes.Buffer exposes its underlying slice, which we can reread.
	case *bytes.Buffer:
		buf := body
		bodyReader = func() (io.Reader, error) {
			return bytes.NewReader(buf.Bytes()), nil
		}
		contentLength = int64(buf.Len())

	// *bytes.Reader is matched before io.ReadSeeker so we snapshot it
	// instead of seeking a reader the caller may still hold.
	case *bytes.Reader:
		snapshot := *body
		bodyReader = func() (io.Reader, error) {
			r := snapshot
			return &r, nil
		}
		contentLength = int64(body.Len())

	case io.ReadSeeker:
		raw := body
		bodyReader = func() (io.Reader, error) {
			_, err := raw.Seek(0, io.SeekStart)
			return io.NopCloser(raw), err
		}
		if lr, ok := raw.(lenReader); ok {
			contentLength = int64(lr.Len())
		}

	// An arbitrary reader is read fully up front so it can be replayed.
	case io.Reader:
		buf, err := io.ReadAll(body)
		if err != nil {
			return nil, 0, err
		}

		if len(buf) == 0 {
			bodyReader = func() (io.Reader, error) {
				return http.NoBody, nil
			}
			contentLength = 0
		} else {
			bodyReader = func() (io.Reader, error) {
				return bytes.NewReader(buf), nil
			}
			contentLength = int64(len(buf))
		}

	default:
		return nil, 0, fmt.Errorf("cannot handle type %T", rawBody)
	}

	return bodyReader, contentLength, nil
}
