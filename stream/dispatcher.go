package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/uyouii/cuffless-bp/common"
	"github.com/uyouii/cuffless-bp/config"
	"github.com/uyouii/cuffless-bp/model"
	"github.com/uyouii/cuffless-bp/pipeline"
	"github.com/uyouii/cuffless-bp/utils"
	"go.uber.org/zap"
)

// subjectWorker processes the windows of one subject in arrival order.
type subjectWorker struct {
	id        string
	inference *pipeline.Inference

	// mu guards sends on queue against closing it
	mu     sync.RWMutex
	queue  chan *WindowMessage
	closed bool
}

// send blocks while the queue is full. It only holds up this subject.
func (w *subjectWorker) send(ctx context.Context, msg *WindowMessage) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return fmt.Errorf("subject %v closed: %w", w.id, common.ErrorNotConnected)
	}
	select {
	case w.queue <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *subjectWorker) close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
}

// Dispatcher routes windows to one pipeline per subject. Windows of the
// same subject are processed one at a time and in order; different
// subjects run in parallel.
type Dispatcher struct {
	cfg *config.Config
	pub Publisher

	mu      sync.RWMutex
	workers map[string]*subjectWorker
	closed  bool
	wg      sync.WaitGroup
}

func NewDispatcher(cfg *config.Config, pub Publisher) *Dispatcher {
	return &Dispatcher{
		cfg:     cfg,
		pub:     pub,
		workers: map[string]*subjectWorker{},
	}
}

// Subscribe feeds every message on the configured window subject into
// Dispatch.
func (d *Dispatcher) Subscribe(ctx context.Context, nc *nats.Conn) (*nats.Subscription, error) {
	logger := utils.GetLogger(ctx)
	return nc.Subscribe(d.cfg.NATS.WindowSubject, func(msg *nats.Msg) {
		if err := d.Dispatch(ctx, msg.Data); err != nil {
			logger.Warn("drop window message", zap.String("subject", msg.Subject), zap.Error(err))
		}
	})
}

// Dispatch decodes one message and queues it for its subject. It blocks
// while that subject's queue is full.
func (d *Dispatcher) Dispatch(ctx context.Context, data []byte) error {
	msg, err := DecodeWindow(data)
	if err != nil {
		return err
	}
	worker, err := d.worker(ctx, msg.SubjectID)
	if err != nil {
		return err
	}
	return worker.send(ctx, msg)
}

func (d *Dispatcher) worker(ctx context.Context, id string) (*subjectWorker, error) {
	d.mu.RLock()
	w, ok := d.workers[id]
	closed := d.closed
	d.mu.RUnlock()
	if closed {
		return nil, fmt.Errorf("dispatcher closed: %w", common.ErrorNotConnected)
	}
	if ok {
		return w, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, fmt.Errorf("dispatcher closed: %w", common.ErrorNotConnected)
	}
	if w, ok := d.workers[id]; ok {
		return w, nil
	}

	inference, err := pipeline.New(d.cfg)
	if err != nil {
		return nil, err
	}
	w = &subjectWorker{
		id:        id,
		inference: inference,
		queue:     make(chan *WindowMessage, d.cfg.NATS.QueueSize),
	}
	d.workers[id] = w

	logger := utils.GetLogger(ctx).With(zap.String("subject_id", id))
	logger.Info("new subject")
	d.wg.Add(1)
	go d.run(utils.WithLogger(context.WithoutCancel(ctx), logger), w)
	return w, nil
}

func (d *Dispatcher) run(ctx context.Context, w *subjectWorker) {
	defer d.wg.Done()
	for msg := range w.queue {
		if _, err := d.process(ctx, w, msg); err != nil {
			utils.GetLogger(ctx).Error("process window failed", zap.Int64("seq", msg.Seq), zap.Error(err))
		}
	}
}

func (d *Dispatcher) process(ctx context.Context, w *subjectWorker, msg *WindowMessage) (res *model.WindowResult, err error) {
	logger := utils.GetLogger(ctx)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("process window recover panic error!", zap.Any("err", r),
				zap.String("panic info", utils.GetPanicInfo()), zap.String("window", msg.DebugString()))
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	res = w.inference.ProcessWindow(ctx, &msg.Window)
	res.SubjectID = w.id

	data, err := json.Marshal(res)
	if err != nil {
		return nil, err
	}
	if err := d.pub.Publish(ResultSubject(d.cfg.NATS.ResultPrefix, w.id), data); err != nil {
		return nil, fmt.Errorf("publish result: %w", err)
	}
	return res, nil
}

// Close stops accepting windows and waits for the queued ones.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	workers := make([]*subjectWorker, 0, len(d.workers))
	for _, w := range d.workers {
		workers = append(workers, w)
	}
	d.mu.Unlock()

	for _, w := range workers {
		w.close()
	}
	d.wg.Wait()
}

func (d *Dispatcher) Subjects() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	res := make([]string, 0, len(d.workers))
	for id := range d.workers {
		res = append(res, id)
	}
	return res
}
