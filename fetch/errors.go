// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package fetch

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyReference indicates a fetch with no source reference.
	ErrEmptyReference = errors.New("empty source reference")

	// ErrUnsupportedReference indicates a reference the fetcher cannot
	// handle, such as a non-http scheme or an unrecognized video URL.
	ErrUnsupportedReference = errors.New("unsupported source reference")

	// ErrNoContent indicates the source yielded nothing usable even after
	// the fallback path.
	ErrNoContent = errors.New("source yielded no content")

	// ErrNoTranscript indicates a video with no retrievable transcript.
	ErrNoTranscript = errors.New("video has no transcript")
)

// Error wraps a fetch failure with its source reference and whether the
// failure is transient. Only transient failures are retried.
type Error struct {
	Reference string
	Transient bool
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("fetching %s: %v", e.Reference, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// transientErr marks a failure worth retrying: timeouts, connection resets,
// rate limits, upstream 5xx.
func transientErr(reference string, err error) *Error {
	return &Error{Reference: reference, Transient: true, Err: err}
}

// permanentErr marks a failure retrying cannot fix: bad references, 4xx,
// unparseable content.
func permanentErr(reference string, err error) *Error {
	return &Error{Reference: reference, Transient: false, Err: err}
}

// IsTransient reports whether err is a fetch failure that may succeed on
// retry.
func IsTransient(err error) bool {
	var fe *Error
	return errors.As(err, &fe) && fe.Transient
}
