package gdtf

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func dimmerDescription(id uuid.UUID) *Description {
	return &Description{
		TypeID: id,
		Name:   "Test Dimmer",
		Modes: []DmxMode{{
			Name: "Standard",
			Channels: []DmxChannel{{
				Offset:  []uint16{1},
				Default: 0,
				Logical: []LogicalChannel{{
					Functions:       []ChannelFunction{{Name: "Intensity", Attribute: "Dimmer"}},
					InitialFunction: 0,
				}},
			}},
		}},
	}
}

func TestStaticLoaderRoundTrip(t *testing.T) {
	id := uuid.New()
	loader := NewStaticLoader()
	loader.Register(dimmerDescription(id))

	desc, err := loader.Load(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, "Test Dimmer", desc.Name)

	mode, ok := desc.Mode("Standard")
	require.True(t, ok)
	attr, ok := mode.Channels[0].InitialAttribute()
	require.True(t, ok)
	require.Equal(t, "Dimmer", attr)
}

func TestStaticLoaderUnknownType(t *testing.T) {
	loader := NewStaticLoader()
	_, err := loader.Load(context.Background(), uuid.New())
	if !errors.Is(err, ErrUnknownType) {
		t.Errorf("err = %v, want ErrUnknownType", err)
	}
}

func TestCachingLoaderHitsUnderlyingOnce(t *testing.T) {
	id := uuid.New()
	underlying := NewStaticLoader()
	underlying.Register(dimmerDescription(id))

	counting := &countingLoader{Loader: underlying}
	cached, err := NewCachingLoader(counting, 8)
	require.NoError(t, err)

	_, err = cached.Load(context.Background(), id)
	require.NoError(t, err)
	_, err = cached.Load(context.Background(), id)
	require.NoError(t, err)

	require.Equal(t, 1, counting.calls)
}

func TestDirectoryLoaderWithoutParser(t *testing.T) {
	dir := t.TempDir()
	id := uuid.New()
	loader := &DirectoryLoader{Dir: dir}

	// Missing blob.
	_, err := loader.Load(context.Background(), id)
	if !errors.Is(err, ErrUnknownType) {
		t.Errorf("err = %v, want ErrUnknownType", err)
	}

	// Blob present but no parser installed.
	require.NoError(t, os.WriteFile(filepath.Join(dir, id.String()), []byte("gdtf"), 0o644))
	_, err = loader.Load(context.Background(), id)
	if !errors.Is(err, ErrParseNotImplemented) {
		t.Errorf("err = %v, want ErrParseNotImplemented", err)
	}
}

type countingLoader struct {
	Loader
	calls int
}

func (c *countingLoader) Load(ctx context.Context, typeID uuid.UUID) (*Description, error) {
	c.calls++
	return c.Loader.Load(ctx, typeID)
}
