package pipeline

import (
	"bytes"
	"encoding/binary"
	"log"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/docker/go-units"
	"github.com/google/uuid"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"

	"github.com/vkngwrapper/frame-presenter/internal/vkerr"
)

const (
	cacheHeaderVersionOne uint32 = 1
	cacheHeaderSize              = 16 + len(uuid.UUID{})
)

// ValidateCacheHeader checks that a blob previously read back from a pipeline
// cache was produced by the same driver and device:
//
//	offset  size  meaning
//	     0     4  header length in bytes
//	     4     4  header version
//	     8     4  vendor ID
//	    12     4  device ID
//	    16    16  pipeline cache UUID
func ValidateCacheHeader(data []byte, vendorID, deviceID uint32, cacheUUID uuid.UUID) error {
	if len(data) < cacheHeaderSize {
		return errors.Newf("cache data is %d bytes, shorter than its header", len(data))
	}

	var headerLength, headerVersion, cachedVendor, cachedDevice uint32
	var cachedUUID uuid.UUID

	reader := bytes.NewReader(data)
	for _, field := range []interface{}{&headerLength, &headerVersion, &cachedVendor, &cachedDevice, &cachedUUID} {
		if err := binary.Read(reader, common.ByteOrder, field); err != nil {
			return errors.Wrap(err, "read cache header")
		}
	}

	if headerLength < uint32(cacheHeaderSize) || int(headerLength) > len(data) {
		return errors.Newf("bad header length 0x%x", headerLength)
	}
	if headerVersion != cacheHeaderVersionOne {
		return errors.Newf("unsupported cache header version 0x%x", headerVersion)
	}
	if cachedVendor != vendorID {
		return errors.Newf("vendor ID mismatch: cache has 0x%x, driver expects 0x%x", cachedVendor, vendorID)
	}
	if cachedDevice != deviceID {
		return errors.Newf("device ID mismatch: cache has 0x%x, driver expects 0x%x", cachedDevice, deviceID)
	}
	if cachedUUID != cacheUUID {
		return errors.Newf("uuid mismatch: cache has %s, driver expects %s", cachedUUID, cacheUUID)
	}

	return nil
}

// Cache is a pipeline cache optionally backed by a file. An empty path gives
// an in-memory cache that is never saved.
type Cache struct {
	Handle core1_0.PipelineCache

	device core1_0.Device
	path   string
}

// OpenCache seeds a new pipeline cache from path when the file exists and its
// header matches the device. Stale or foreign data is discarded and removed.
func OpenCache(device core1_0.Device, props *core1_0.PhysicalDeviceProperties, path string) (*Cache, error) {
	var initialData []byte

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			log.Printf("pipeline cache miss: %s\n", path)
		case err != nil:
			return nil, errors.Wrapf(err, "read pipeline cache %s", path)
		default:
			err = ValidateCacheHeader(data, props.VendorID, props.DeviceID, props.PipelineCacheUUID)
			if err != nil {
				log.Printf("discarding pipeline cache %s: %v\n", path, err)
				_ = os.Remove(path)
			} else {
				log.Printf("pipeline cache hit: %s (%s)\n", path, units.BytesSize(float64(len(data))))
				initialData = data
			}
		}
	}

	handle, _, err := device.CreatePipelineCache(nil, core1_0.PipelineCacheCreateInfo{
		InitialData: initialData,
	})
	if err != nil {
		return nil, vkerr.Fatal(err, "create pipeline cache")
	}

	return &Cache{Handle: handle, device: device, path: path}, nil
}

// Save writes the cache contents back to its file.
func (c *Cache) Save() error {
	if c == nil || c.Handle == nil || c.path == "" {
		return nil
	}

	data, _, err := c.Handle.CacheData()
	if err != nil {
		return vkerr.Fatal(err, "read pipeline cache data")
	}

	if err := os.WriteFile(c.path, data, 0666); err != nil {
		return errors.Wrapf(err, "write pipeline cache %s", c.path)
	}
	log.Printf("saved pipeline cache %s (%s)\n", c.path, units.BytesSize(float64(len(data))))
	return nil
}

func (c *Cache) Destroy() {
	if c != nil && c.Handle != nil {
		c.Handle.Destroy(nil)
		c.Handle = nil
	}
}
