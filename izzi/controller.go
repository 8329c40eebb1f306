package izzi

import (
	"context"
	"encoding/hex"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/victorjacobs/go-izzi/ui"
)

const (
	ReconnectDelay = 5 * time.Second
	// the unit needs a short pause after a status frame before it accepts a command
	WriteDelay = 200 * time.Millisecond

	// a command frame is written once every statusFramesPerWrite status frames
	statusFramesPerWrite = 2
	// fans must keep moving while the unit is on and the intake cover is open
	minFanSpeed = 15

	pendingCommands = 64
)

type Role int

const (
	Master Role = iota
	Slave
)

func (r Role) String() string {
	if r == Slave {
		return "slave"
	}
	return "master"
}

// BiasStore keeps the CF slow corrections across restarts.
type BiasStore interface {
	LoadCFBias() (supply int, extract int, err error)
	SaveCFBias(supply int, extract int) error
	DeleteCFBias() error
}

type Statistics struct {
	StatusFrames  int64
	CommandFrames int64
	FramesWritten int64
	Reconnects    int64
	LoopErrors    int64
}

type Option func(*Controller)

func WithRole(role Role) Option {
	return func(c *Controller) {
		c.role = role
	}
}

func WithListener(listener Listener) Option {
	return func(c *Controller) {
		c.listener = listener
	}
}

func WithBiasStore(store BiasStore) Option {
	return func(c *Controller) {
		c.biasStore = store
	}
}

// Controller polls the unit, keeps the sensor mirror up to date and, as
// master, writes the command frame back at the pace the unit expects.
//
// All table state is owned by the loop goroutine. Setters validate their input
// and hand the mutation to the loop through a channel.
type Controller struct {
	transport Transport
	role      Role
	listener  Listener
	biasStore BiasStore

	readTimeout    time.Duration
	reconnectDelay time.Duration
	writeDelay     time.Duration

	pending  chan func(*Controller)
	snapshot cmap.ConcurrentMap[string, Reading]

	statusFrames  atomic.Int64
	commandFrames atomic.Int64
	framesWritten atomic.Int64
	reconnects    atomic.Int64
	loopErrors    atomic.Int64

	// owned by the loop
	sensors       []*sensorEntry
	commands      []*commandEntry
	virtuals      []*virtualEntry
	buffer        []byte
	cf            *CFEngine
	framesToWrite int
	speed         int
	correction    int
	lastSavedBias [2]int
	biasRestored  bool

	cancel context.CancelFunc
	done   chan struct{}
}

func NewController(transport Transport, opts ...Option) *Controller {
	c := &Controller{
		transport:      transport,
		role:           Master,
		readTimeout:    DefaultReadTimeout,
		reconnectDelay: ReconnectDelay,
		writeDelay:     WriteDelay,
		pending:        make(chan func(*Controller), pendingCommands),
		snapshot:       cmap.New[Reading](),
		sensors:        newSensorTable(),
		commands:       newCommandTable(),
		virtuals:       newVirtualTable(),
		buffer:         NewCommandFrame(),
		cf:             NewCFEngine(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) Role() Role {
	return c.role
}

// Start runs the loop in the background until Stop is called.
func (c *Controller) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})

	go func() {
		defer close(c.done)
		_ = c.Run(ctx)
	}()
}

// Stop asks the loop to exit and waits until the transport is closed.
func (c *Controller) Stop() {
	if c.cancel == nil {
		return
	}
	c.cancel()
	<-c.done
	c.cancel = nil
}

// Run polls the unit until ctx is cancelled. Connection problems and bad frames
// are logged and retried, they never end the loop.
func (c *Controller) Run(ctx context.Context) error {
	ui.Info("Starting controller as %s", c.role)
	c.restoreBias()

	for ctx.Err() == nil {
		c.applyPending()

		if !c.transport.IsConnected() {
			ui.Info("Trying to connect to unit")
			if err := c.transport.Connect(); err != nil {
				ui.Error("Connection failed: %v", err)
				c.wait(ctx, c.reconnectDelay)
				continue
			}
			ui.Info("Connection established")
		}

		c.iterate(ctx)
	}

	ui.Info("Stopping controller")
	if err := c.transport.Disconnect(); err != nil {
		ui.Error("Disconnect failed: %v", err)
	}
	return nil
}

// iterate handles a single frame. A panic here only costs the current frame.
func (c *Controller) iterate(ctx context.Context) {
	defer func() {
		if v := recover(); v != nil {
			c.loopErrors.Add(1)
			ui.Error("Panic in controller loop: %v", v)
		}
	}()

	frame, err := c.transport.ReadFrame(c.readTimeout)
	if err != nil || frame == nil {
		if err != nil {
			ui.Error("Read failed: %v, disconnecting", err)
		} else {
			ui.Error("No frame within %v, disconnecting", c.readTimeout)
		}
		c.reconnects.Add(1)
		if err := c.transport.Disconnect(); err != nil {
			ui.Error("Disconnect failed: %v", err)
		}
		return
	}

	writeDue, err := c.handleFrame(frame)
	if err != nil {
		c.loopErrors.Add(1)
		ui.Error("Dropping frame %s: %v", hex.EncodeToString(frame), err)
		return
	}
	if !writeDue || c.role != Master {
		return
	}

	// setters queued now are applied before the next frame, the buffer has
	// to stay as reconciled until it is sent
	if !sleep(ctx, c.writeDelay) {
		return
	}
	if err := c.transport.WriteFrame(c.buffer); err != nil {
		ui.Error("Write failed: %v, disconnecting", err)
		c.reconnects.Add(1)
		_ = c.transport.Disconnect()
		return
	}
	c.framesWritten.Add(1)
}

// handleFrame runs one decode/reconcile/publish cycle and reports whether a
// command frame is due.
func (c *Controller) handleFrame(frame []byte) (bool, error) {
	frameType, err := FrameType(frame)
	if err != nil {
		return false, err
	}

	switch frameType {
	case StatusFrameID:
		if len(frame) < StatusFrameLength {
			return false, fmt.Errorf("status frame of %d bytes: %w", len(frame), ErrShortFrame)
		}
		c.statusFrames.Add(1)
		c.framesToWrite++
		c.decodeStatus(frame)
		c.updateEfficiency()
	case CommandFrameID:
		if len(frame) < CommandFrameLength {
			return false, fmt.Errorf("command frame of %d bytes: %w", len(frame), ErrShortFrame)
		}
		c.commandFrames.Add(1)
		if c.role == Slave {
			c.mirrorCommand(frame)
		}
	}

	c.reconcile()

	if c.cf.Enabled() {
		c.virtual(SensorCFSupplyCorrection).value = Known(c.cf.SlowCorrection(Supply))
		c.virtual(SensorCFExtractCorrection).value = Known(c.cf.SlowCorrection(Extract))
	}
	c.publishVirtuals()
	c.saveBias()

	if c.framesToWrite >= statusFramesPerWrite {
		c.framesToWrite = 0
		return true, nil
	}
	return false, nil
}

func (c *Controller) decodeStatus(frame []byte) {
	for _, s := range c.sensors {
		value, err := s.field.Decode(frame)
		if err != nil {
			ui.Error("Decoding %s failed: %v", s.id, err)
			continue
		}
		if s.last == nil || *s.last != value {
			s.last = intPtr(value)
			c.notify(s.id, Known(value))
		}
	}
}

func (c *Controller) updateEfficiency() {
	entry := c.virtual(SensorEfficiency)

	outdoor := c.sensor(SensorTemperatureOutdoor).last
	supply := c.sensor(SensorTemperatureSupply).last
	extract := c.sensor(SensorTemperatureExtract).last
	if outdoor == nil || supply == nil || extract == nil {
		ui.Error("Efficiency unknown, missing temperature")
		entry.value = Reading{}
		return
	}

	entry.value = Known(Efficiency(*outdoor, *supply, *extract))
}

// Efficiency is the heat recovery efficiency in percent. Equal extract and
// outdoor temperatures count as 100%.
func Efficiency(outdoor int, supply int, extract int) int {
	if extract == outdoor {
		return 100
	}
	efficiency := float64(supply-outdoor) / float64(extract-outdoor) * 100.0
	return int(math.RoundToEven(efficiency))
}

// mirrorCommand takes over the targets another master put on the bus.
func (c *Controller) mirrorCommand(frame []byte) {
	for _, e := range c.commands {
		value, err := e.field.Decode(frame)
		if err != nil {
			ui.Error("Decoding %s failed: %v", e.id, err)
			continue
		}
		e.target = value
	}
	ui.Debug("CMD RX %s", hex.EncodeToString(frame))
}

// reconcile brings the command buffer in line with the targets.
func (c *Controller) reconcile() {
	unitOn := c.commandTarget(SensorUnitState) == UnitOn
	cover := c.sensor(SensorCoverState).last
	coverOpen := cover != nil && *cover == CoverOpen

	for _, e := range c.commands {
		current, err := e.field.Decode(c.buffer)
		if err != nil {
			ui.Error("Reading %s from command buffer failed: %v", e.id, err)
			continue
		}

		expected := e.scale.Apply(e.target)
		if c.role == Master && unitOn && coverOpen {
			switch e.id {
			case SensorFanSupplySpeed:
				expected = max(c.cf.Speed(Supply, expected), minFanSpeed)
			case SensorFanExtractSpeed:
				expected = max(c.cf.Speed(Extract, expected), minFanSpeed)
			}
		}

		if expected != current {
			if err := e.field.Encode(c.buffer, expected); err != nil {
				ui.Error("Writing %s to command buffer failed: %v", e.id, err)
				continue
			}
			written, _ := e.field.Decode(c.buffer)
			e.forced = false
			c.notify(e.id, Known(written))
		} else if e.forced {
			e.forced = false
			c.notify(e.id, Known(current))
		}
	}
}

func (c *Controller) publishVirtuals() {
	for _, v := range c.virtuals {
		if v.published == nil || *v.published != v.value {
			value := v.value
			v.published = &value
			c.notify(v.id, value)
		}
	}
}

func (c *Controller) restoreBias() {
	if c.biasStore == nil || c.biasRestored {
		return
	}
	c.biasRestored = true

	supply, extract, err := c.biasStore.LoadCFBias()
	if err != nil {
		ui.Warning("No stored CF bias: %v", err)
		return
	}
	c.cf.RestoreSlowCorrection(Supply, supply)
	c.cf.RestoreSlowCorrection(Extract, extract)
	c.lastSavedBias = [2]int{supply, extract}
	ui.Info("Restored CF bias supply %d, extract %d", supply, extract)
}

func (c *Controller) saveBias() {
	if c.biasStore == nil || !c.cf.Enabled() {
		return
	}
	bias := [2]int{c.cf.SlowCorrection(Supply), c.cf.SlowCorrection(Extract)}
	if bias == c.lastSavedBias {
		return
	}
	if err := c.biasStore.SaveCFBias(bias[Supply], bias[Extract]); err != nil {
		ui.Error("Saving CF bias failed: %v", err)
		return
	}
	c.lastSavedBias = bias
}

func (c *Controller) deleteBias() {
	c.lastSavedBias = [2]int{}
	if c.biasStore == nil {
		return
	}
	if err := c.biasStore.DeleteCFBias(); err != nil {
		ui.Error("Deleting CF bias failed: %v", err)
	}
}

func (c *Controller) notify(id SensorID, reading Reading) {
	c.snapshot.Set(string(id), reading)
	if c.listener != nil {
		c.listener(id, reading)
	}
}

// wait sleeps for d, applying queued setter calls in the meantime.
func (c *Controller) wait(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			return
		case fn := <-c.pending:
			fn(c)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (c *Controller) applyPending() {
	for {
		select {
		case fn := <-c.pending:
			fn(c)
		default:
			return
		}
	}
}

func (c *Controller) sensor(id SensorID) *sensorEntry {
	for _, s := range c.sensors {
		if s.id == id {
			return s
		}
	}
	panic(fmt.Sprintf("unknown sensor %s", id))
}

func (c *Controller) command(id SensorID) *commandEntry {
	for _, e := range c.commands {
		if e.id == id {
			return e
		}
	}
	panic(fmt.Sprintf("unknown command %s", id))
}

func (c *Controller) virtual(id SensorID) *virtualEntry {
	for _, v := range c.virtuals {
		if v.id == id {
			return v
		}
	}
	panic(fmt.Sprintf("unknown virtual sensor %s", id))
}

func (c *Controller) commandTarget(id SensorID) int {
	return c.command(id).target
}

// Reading returns the last published value of id.
func (c *Controller) Reading(id SensorID) (Reading, bool) {
	return c.snapshot.Get(string(id))
}

// Snapshot returns the last published value of every sensor seen so far.
func (c *Controller) Snapshot() map[SensorID]Reading {
	result := map[SensorID]Reading{}
	for key, value := range c.snapshot.Items() {
		result[SensorID(key)] = value
	}
	return result
}

func (c *Controller) Statistics() Statistics {
	return Statistics{
		StatusFrames:  c.statusFrames.Load(),
		CommandFrames: c.commandFrames.Load(),
		FramesWritten: c.framesWritten.Load(),
		Reconnects:    c.reconnects.Load(),
		LoopErrors:    c.loopErrors.Load(),
	}
}
