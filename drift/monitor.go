package drift

import (
	"context"

	"github.com/uyouii/cuffless-bp/model"
	"github.com/uyouii/cuffless-bp/utils"
	"go.uber.org/zap"
)

// Monitor watches the per-window PTT median for level shifts that suggest
// the calibration no longer holds. It only reports; it never touches the
// calibrators. Not safe for concurrent use.
type Monitor struct {
	cfg Config

	onlineChecker *BocdOnlineChecker
	// absolute index of onlineChecker.Datas()[0]
	offset int64
	count  int64

	changePoints []*model.ChangePoint
}

func NewMonitor(cfg Config) (*Monitor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Monitor{
		cfg:          cfg,
		changePoints: []*model.ChangePoint{},
	}, nil
}

// Append feeds the next window's PTT median. Absent values are skipped and
// do not advance the window index.
func (m *Monitor) Append(ctx context.Context, value model.NullFloat) (*model.ChangePoint, bool) {
	if !value.Valid {
		return nil, false
	}
	logger := utils.GetLogger(ctx)

	point := model.IndexValue{Index: m.count, Value: value.Float64}
	m.count++

	if m.onlineChecker == nil {
		m.onlineChecker = NewBocdOnlineChecker(m.cfg, point.Value)
		m.offset = point.Index
	}
	m.rebalance(ctx)
	m.onlineChecker.AppendPoint(point)

	loc, ok := m.onlineChecker.RecentRunStart(m.cfg.Threshold, m.cfg.ObserveWindows)
	if !ok {
		return nil, false
	}
	datas := m.onlineChecker.Datas()
	start := datas[loc]

	// a run that was already reported keeps showing up while it grows
	if last, ok := m.LastChangePoint(); ok && start.Index < last.IndexValue.Index+int64(m.cfg.ObserveWindows) {
		return nil, false
	}

	changePoint := &model.ChangePoint{IndexValue: start}
	before := datas[utils.IntMax(0, loc-m.cfg.ObserveWindows):loc]
	if meanOf(datas[loc:]) > meanOf(before) {
		changePoint.ChangePointType = model.IncreaseChangePoint
	} else {
		changePoint.ChangePointType = model.DecreaseChangePoint
	}

	m.changePoints = append(m.changePoints, changePoint)
	m.changePoints = RemoveOldChangePoints(m.changePoints, m.count-int64(m.cfg.MaxHistory))

	if m.skipChangePoint(ctx) {
		return nil, false
	}

	logger.Info("find new change point", zap.Any("changePoint", changePoint))
	return changePoint, true
}

// rebalance rebuilds the checker from the newest ReserveHistory points once
// it holds MaxHistory, so memory and per-point cost stay bounded.
func (m *Monitor) rebalance(ctx context.Context) {
	if m.onlineChecker.DataSize() < m.cfg.MaxHistory {
		return
	}
	logger := utils.GetLogger(ctx)

	datas := m.onlineChecker.Datas()
	reserveDatas := datas[len(datas)-m.cfg.ReserveHistory:]

	newOnlineChecker := NewBocdOnlineChecker(m.cfg, meanOf(reserveDatas))
	for _, point := range reserveDatas {
		newOnlineChecker.AppendPoint(point)
	}
	m.onlineChecker = newOnlineChecker
	m.offset = reserveDatas[0].Index
	logger.Debug("rebuild online checker", zap.Int64("offset", m.offset),
		zap.Int("reserve", len(reserveDatas)))
}

func (m *Monitor) skipChangePoint(ctx context.Context) bool {
	if m.cfg.BurstLimit == 0 {
		return false
	}
	count := GetChangePointCountSince(m.count-int64(m.cfg.BurstWindows), m.changePoints)
	if count > m.cfg.BurstLimit {
		utils.GetLogger(ctx).Info("too many change points in recent windows",
			zap.Int("windows", m.cfg.BurstWindows), zap.Int("limitCount", m.cfg.BurstLimit),
			zap.Int("changePointCnt", count))
		return true
	}
	return false
}

// ChangePoints returns the changepoints found within the last MaxHistory
// windows, including suppressed ones.
func (m *Monitor) ChangePoints() []*model.ChangePoint {
	return m.changePoints
}

func (m *Monitor) LastChangePoint() (*model.ChangePoint, bool) {
	if len(m.changePoints) > 0 {
		return m.changePoints[len(m.changePoints)-1], true
	}
	return nil, false
}

// Count is the number of values appended so far.
func (m *Monitor) Count() int64 {
	return m.count
}

func (m *Monitor) Size() int {
	if m.onlineChecker == nil {
		return 0
	}
	return m.onlineChecker.DataSize()
}
