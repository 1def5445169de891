package vkp

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	vk "github.com/vulkan-go/vulkan"
)

func TestResultErrMapping(t *testing.T) {
	assert.NoError(t, resultErr(vk.Success))

	// suboptimal is not an error, the callers report it out of band
	assert.NoError(t, resultErr(vk.Suboptimal))

	assert.ErrorIs(t, resultErr(vk.ErrorOutOfDate), ErrChainStale)
	assert.ErrorIs(t, resultErr(vk.ErrorDeviceLost), ErrDeviceLost)
	assert.ErrorIs(t, resultErr(vk.Timeout), ErrTimeout)

	// anything else falls through to the native error
	assert.Error(t, resultErr(vk.ErrorOutOfDeviceMemory))
}

func TestSetupErrorWrapping(t *testing.T) {
	cause := errors.New("boom")
	err := setupErr("swapchain", cause)

	var setup *SetupError
	assert.ErrorAs(t, err, &setup)
	assert.Equal(t, "swapchain", setup.Stage)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "swapchain")

	err = setupErrf("device", "no queue family supports %s", "graphics")
	assert.ErrorAs(t, err, &setup)
	assert.Contains(t, err.Error(), "graphics")
}

func TestSubmissionErrorWrapping(t *testing.T) {
	cause := errors.New("validation failed")
	err := &SubmissionError{Op: "present", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "present")
}
