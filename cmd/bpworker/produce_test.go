package main

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uyouii/cuffless-bp/config"
	"github.com/uyouii/cuffless-bp/stream"
)

type capture struct {
	mu       sync.Mutex
	subjects []string
	data     [][]byte
}

func (c *capture) Publish(subject string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subjects = append(c.subjects, subject)
	c.data = append(c.data, data)
	return nil
}

func TestProduce(t *testing.T) {
	cfg := config.Default()
	opts := produceOptions{subject: "s9", windows: 3, interval: time.Millisecond, hr: 72, basePTT: 0.25, cuffEvery: 2}
	pub := &capture{}

	require.NoError(t, produce(context.Background(), cfg, opts, pub))
	require.Len(t, pub.data, 3)
	assert.Equal(t, []string{"bp.window", "bp.window", "bp.window"}, pub.subjects)

	for i, data := range pub.data {
		msg, err := stream.DecodeWindow(data)
		require.NoError(t, err)
		assert.Equal(t, "s9", msg.SubjectID)
		assert.Equal(t, int64(i), msg.Seq)
		assert.Len(t, msg.ECG, 1280)
		assert.Equal(t, i%2 == 0, msg.Reference != nil)
	}
}

func TestProduce_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pub := &capture{}
	opts := produceOptions{subject: "s9", windows: 5, interval: time.Hour, hr: 72, basePTT: 0.25}

	require.NoError(t, produce(ctx, config.Default(), opts, pub))
	assert.Len(t, pub.data, 1)
}
