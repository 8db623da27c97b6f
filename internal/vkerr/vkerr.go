// Package vkerr maps the results of native Vulkan calls onto three error kinds:
// fatal initialization/device failures, stale presentation surfaces that can be
// recovered by rebuilding the swapchain, and resource exhaustion.
package vkerr

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/extensions/khr_swapchain"
)

var (
	ErrFatal     = errors.New("unrecoverable gpu error")
	ErrStale     = errors.New("presentation surface out of date")
	ErrExhausted = errors.New("gpu resources exhausted")
)

type Kind int

const (
	KindNone Kind = iota
	KindFatal
	KindStale
	KindExhausted
)

func (k Kind) String() string {
	switch k {
	case KindFatal:
		return "fatal"
	case KindStale:
		return "stale"
	case KindExhausted:
		return "exhausted"
	default:
		return "none"
	}
}

// Fatal wraps err and marks it as unrecoverable. A nil err stays nil.
func Fatal(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return errors.Mark(errors.Wrapf(err, format, args...), ErrFatal)
}

// Fatalf creates a new unrecoverable error.
func Fatalf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrFatal)
}

// Exhausted wraps err and marks it as a resource exhaustion failure. A nil err stays nil.
func Exhausted(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return errors.Mark(errors.Wrapf(err, format, args...), ErrExhausted)
}

// Exhaustedf creates a new resource exhaustion error.
func Exhaustedf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrExhausted)
}

// Surface classifies the result of an acquire or present call. Out-of-date and
// suboptimal results become ErrStale even when the binding reported no error;
// any other failure is fatal.
func Surface(res common.VkResult, err error, format string, args ...interface{}) error {
	if res == khr_swapchain.VKErrorOutOfDate || res == khr_swapchain.VKSuboptimal {
		cause := err
		if cause == nil {
			cause = errors.Newf("%v", res)
		}
		return errors.Mark(errors.Wrapf(cause, format, args...), ErrStale)
	}

	return Fatal(err, format, args...)
}

func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrStale):
		return KindStale
	case errors.Is(err, ErrExhausted):
		return KindExhausted
	default:
		return KindFatal
	}
}

func IsStale(err error) bool {
	return errors.Is(err, ErrStale)
}
