package mavsdk

import (
	"context"
	"math"
	"sync"

	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/bluenviron/gomavlib/v3/pkg/message"
)

// CameraAction is triggered when a mission item is reached.
type CameraAction int

const (
	CameraActionNone CameraAction = iota
	CameraActionTakePhoto
	CameraActionStartPhotoInterval
	CameraActionStopPhotoInterval
	CameraActionStartVideo
	CameraActionStopVideo
)

var cameraActionNames = map[CameraAction]string{
	CameraActionNone:               "none",
	CameraActionTakePhoto:          "take_photo",
	CameraActionStartPhotoInterval: "start_photo_interval",
	CameraActionStopPhotoInterval:  "stop_photo_interval",
	CameraActionStartVideo:         "start_video",
	CameraActionStopVideo:          "stop_video",
}

func (c CameraAction) String() string {
	if name, ok := cameraActionNames[c]; ok {
		return name
	}
	return "unknown"
}

// ParseCameraAction is the inverse of CameraAction.String.
func ParseCameraAction(s string) (CameraAction, bool) {
	for action, name := range cameraActionNames {
		if name == s {
			return action, true
		}
	}
	return CameraActionNone, false
}

// MissionItem is one waypoint of a mission plan.
// Float fields set to NaN are left to the vehicle's defaults; use
// NewMissionItem to get an item with every optional field unset.
type MissionItem struct {
	LatitudeDeg          float64
	LongitudeDeg         float64
	RelativeAltitudeM    float32
	SpeedMS              float32
	IsFlyThrough         bool
	GimbalPitchDeg       float32
	GimbalYawDeg         float32
	CameraAction         CameraAction
	CameraPhotoIntervalS float32
	AcceptanceRadiusM    float32
}

// NewMissionItem returns an item at the given position with every optional
// field unset.
func NewMissionItem(latitudeDeg, longitudeDeg float64, relativeAltitudeM float32) MissionItem {
	nan := float32(math.NaN())
	return MissionItem{
		LatitudeDeg:          latitudeDeg,
		LongitudeDeg:         longitudeDeg,
		RelativeAltitudeM:    relativeAltitudeM,
		SpeedMS:              nan,
		GimbalPitchDeg:       nan,
		GimbalYawDeg:         nan,
		CameraPhotoIntervalS: nan,
		AcceptanceRadiusM:    nan,
	}
}

// MissionPlan is an ordered list of mission items.
type MissionPlan struct {
	MissionItems []MissionItem
}

// MissionProgress reports the item being flown out of the total.
type MissionProgress struct {
	Current int
	Total   int
}

const defaultAcceptanceRadiusM = 1.0

// Mission uploads, starts and tracks missions.
type Mission struct {
	system *System

	mu           sync.Mutex
	seqToItem    []int // MAVLink sequence number -> mission item index
	itemCount    int
	lastReached  int
	lastProgress MissionProgress
	progressSubs []func(MissionProgress)
	transfer     *missionTransfer
}

type missionTransfer struct {
	requests chan uint16
	acks     chan common.MAV_MISSION_RESULT
}

// NewMission creates the mission plugin for system.
func NewMission(system *System) *Mission {
	m := &Mission{system: system, lastReached: -1}

	system.subscribe(messageID(&common.MessageMissionRequestInt{}), m.handleRequestInt)
	system.subscribe(messageID(&common.MessageMissionRequest{}), m.handleRequest)
	system.subscribe(messageID(&common.MessageMissionAck{}), m.handleAck)
	system.subscribe(messageID(&common.MessageMissionCurrent{}), m.handleCurrent)
	system.subscribe(messageID(&common.MessageMissionItemReached{}), m.handleItemReached)

	return m
}

// UploadMission transfers plan to the vehicle, replacing any mission on it.
func (m *Mission) UploadMission(ctx context.Context, plan MissionPlan) error {
	const op = "upload mission"

	for _, item := range plan.MissionItems {
		if item.LatitudeDeg < -90 || item.LatitudeDeg > 90 ||
			item.LongitudeDeg < -180 || item.LongitudeDeg > 180 {
			return newError(op, ResultInvalidArgument)
		}
	}

	items, seqToItem := assembleMissionItems(plan)
	if len(items) > math.MaxUint16 {
		return newError(op, ResultTooManyMissionItems)
	}
	for _, it := range items {
		it.TargetSystem = m.system.systemID
		it.TargetComponent = autopilotComponentID
	}

	transfer := &missionTransfer{
		requests: make(chan uint16, 8),
		acks:     make(chan common.MAV_MISSION_RESULT, 1),
	}
	m.mu.Lock()
	if m.transfer != nil {
		m.mu.Unlock()
		return newError(op, ResultBusy)
	}
	m.transfer = transfer
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.transfer = nil
		m.mu.Unlock()
	}()

	var last message.Message = &common.MessageMissionCount{
		TargetSystem:    m.system.systemID,
		TargetComponent: autopilotComponentID,
		Count:           uint16(len(items)),
		MissionType:     common.MAV_MISSION_TYPE_MISSION,
	}
	m.system.sendMessage(last)

	retries := 0
	timeout := m.system.clock.After(m.system.config.CommandTimeout)
	for {
		select {
		case seq := <-transfer.requests:
			if int(seq) >= len(items) {
				m.cancelTransfer()
				return newError(op, ResultProtocolError)
			}
			last = items[seq]
			m.system.sendMessage(last)
			retries = 0
			timeout = m.system.clock.After(m.system.config.CommandTimeout)

		case result := <-transfer.acks:
			if r := resultFromMissionAck(result); r != ResultSuccess {
				return newError(op, r)
			}
			m.mu.Lock()
			m.seqToItem = seqToItem
			m.itemCount = len(plan.MissionItems)
			m.lastReached = -1
			m.lastProgress = MissionProgress{}
			m.mu.Unlock()
			return nil

		case <-timeout:
			if retries >= m.system.config.CommandRetries {
				return newError(op, ResultTimeout)
			}
			retries++
			m.system.sendMessage(last)
			timeout = m.system.clock.After(m.system.config.CommandTimeout)

		case <-ctx.Done():
			m.cancelTransfer()
			return &Error{Op: op, Result: ResultCancelled, Err: ctx.Err()}
		}
	}
}

// UploadMissionAsync runs UploadMission in the background. The returned
// channel receives exactly one value, nil on success.
func (m *Mission) UploadMissionAsync(ctx context.Context, plan MissionPlan) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- m.UploadMission(ctx, plan)
	}()
	return done
}

// StartMission switches the vehicle to mission mode.
func (m *Mission) StartMission(ctx context.Context) error {
	m.mu.Lock()
	count := m.itemCount
	m.mu.Unlock()
	if count == 0 {
		return newError("start mission", ResultNoMissionAvailable)
	}
	return m.system.SendCommand(ctx, "start mission", setModeCommand(px4MainModeAuto, px4SubModeAutoMission))
}

// StartMissionAsync runs StartMission in the background. The returned
// channel receives exactly one value, nil on success.
func (m *Mission) StartMissionAsync(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- m.StartMission(ctx)
	}()
	return done
}

// SubscribeMissionProgress calls cb whenever the current item changes.
func (m *Mission) SubscribeMissionProgress(cb func(MissionProgress)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.progressSubs = append(m.progressSubs, cb)
}

// IsMissionFinished reports whether the last mission item has been reached.
func (m *Mission) IsMissionFinished() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.itemCount == 0 {
		return false, newError("is mission finished", ResultNoMissionAvailable)
	}
	if m.lastReached < 0 || m.lastReached >= len(m.seqToItem) {
		return false, nil
	}
	return m.seqToItem[m.lastReached] == m.itemCount-1, nil
}

func (m *Mission) cancelTransfer() {
	m.system.sendMessage(&common.MessageMissionAck{
		TargetSystem:    m.system.systemID,
		TargetComponent: autopilotComponentID,
		Type:            common.MAV_MISSION_OPERATION_CANCELLED,
		MissionType:     common.MAV_MISSION_TYPE_MISSION,
	})
}

func (m *Mission) activeTransfer() *missionTransfer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transfer
}

func (m *Mission) handleRequestInt(msg message.Message) {
	r := msg.(*common.MessageMissionRequestInt)
	if r.MissionType != common.MAV_MISSION_TYPE_MISSION {
		return
	}
	m.forwardRequest(r.Seq)
}

func (m *Mission) handleRequest(msg message.Message) {
	r := msg.(*common.MessageMissionRequest)
	if r.MissionType != common.MAV_MISSION_TYPE_MISSION {
		return
	}
	m.forwardRequest(r.Seq)
}

func (m *Mission) forwardRequest(seq uint16) {
	if t := m.activeTransfer(); t != nil {
		select {
		case t.requests <- seq:
		default:
		}
	}
}

func (m *Mission) handleAck(msg message.Message) {
	a := msg.(*common.MessageMissionAck)
	if a.MissionType != common.MAV_MISSION_TYPE_MISSION {
		return
	}
	if t := m.activeTransfer(); t != nil {
		select {
		case t.acks <- a.Type:
		default:
		}
	}
}

func (m *Mission) handleCurrent(msg message.Message) {
	c := msg.(*common.MessageMissionCurrent)

	m.mu.Lock()
	if m.itemCount == 0 {
		m.mu.Unlock()
		return
	}
	current := m.itemCount
	if int(c.Seq) < len(m.seqToItem) {
		current = m.seqToItem[c.Seq]
	}
	m.reportProgressLocked(current)
}

func (m *Mission) handleItemReached(msg message.Message) {
	r := msg.(*common.MessageMissionItemReached)

	m.mu.Lock()
	if m.itemCount == 0 {
		m.mu.Unlock()
		return
	}
	m.lastReached = int(r.Seq)
	current := m.lastProgress.Current
	if int(r.Seq) < len(m.seqToItem) && m.seqToItem[r.Seq] == m.itemCount-1 {
		current = m.itemCount
	}
	m.reportProgressLocked(current)
}

// reportProgressLocked must be called with m.mu held; it releases it.
func (m *Mission) reportProgressLocked(current int) {
	progress := MissionProgress{Current: current, Total: m.itemCount}
	changed := progress != m.lastProgress
	m.lastProgress = progress
	subs := append([]func(MissionProgress){}, m.progressSubs...)
	m.mu.Unlock()

	if !changed {
		return
	}
	for _, cb := range subs {
		cb := cb
		m.system.enqueue(func() { cb(progress) })
	}
}

// assembleMissionItems expands each mission item into its MAVLink items and
// records which mission item every MAVLink sequence number belongs to.
func assembleMissionItems(plan MissionPlan) ([]*common.MessageMissionItemInt, []int) {
	var items []*common.MessageMissionItemInt
	var seqToItem []int

	add := func(index int, it *common.MessageMissionItemInt) {
		it.Seq = uint16(len(items))
		it.Autocontinue = 1
		it.MissionType = common.MAV_MISSION_TYPE_MISSION
		if it.Seq == 0 {
			it.Current = 1
		}
		items = append(items, it)
		seqToItem = append(seqToItem, index)
	}

	for i, item := range plan.MissionItems {
		holdTimeS := float32(0.5)
		if item.IsFlyThrough {
			holdTimeS = 0
		}
		acceptance := float32(defaultAcceptanceRadiusM)
		if isSet(item.AcceptanceRadiusM) {
			acceptance = item.AcceptanceRadiusM
		}
		add(i, &common.MessageMissionItemInt{
			Frame:   common.MAV_FRAME_GLOBAL_RELATIVE_ALT_INT,
			Command: common.MAV_CMD_NAV_WAYPOINT,
			Param1:  holdTimeS,
			Param2:  acceptance,
			Param4:  float32(math.NaN()),
			X:       int32(math.Round(item.LatitudeDeg * 1e7)),
			Y:       int32(math.Round(item.LongitudeDeg * 1e7)),
			Z:       item.RelativeAltitudeM,
		})

		if isSet(item.SpeedMS) && item.SpeedMS > 0 {
			add(i, &common.MessageMissionItemInt{
				Frame:   common.MAV_FRAME_MISSION,
				Command: common.MAV_CMD_DO_CHANGE_SPEED,
				Param1:  1, // ground speed
				Param2:  item.SpeedMS,
				Param3:  -1,
			})
		}

		if isSet(item.GimbalPitchDeg) || isSet(item.GimbalYawDeg) {
			add(i, &common.MessageMissionItemInt{
				Frame:   common.MAV_FRAME_MISSION,
				Command: common.MAV_CMD_DO_GIMBAL_MANAGER_PITCHYAW,
				Param1:  item.GimbalPitchDeg,
				Param2:  item.GimbalYawDeg,
				Param3:  float32(math.NaN()),
				Param4:  float32(math.NaN()),
			})
		}

		if camera := cameraCommand(item); camera != nil {
			add(i, camera)
		}
	}

	return items, seqToItem
}

func cameraCommand(item MissionItem) *common.MessageMissionItemInt {
	it := &common.MessageMissionItemInt{Frame: common.MAV_FRAME_MISSION}
	switch item.CameraAction {
	case CameraActionTakePhoto:
		it.Command = common.MAV_CMD_IMAGE_START_CAPTURE
		it.Param3 = 1 // one image
	case CameraActionStartPhotoInterval:
		it.Command = common.MAV_CMD_IMAGE_START_CAPTURE
		if isSet(item.CameraPhotoIntervalS) {
			it.Param2 = item.CameraPhotoIntervalS
		}
	case CameraActionStopPhotoInterval:
		it.Command = common.MAV_CMD_IMAGE_STOP_CAPTURE
	case CameraActionStartVideo:
		it.Command = common.MAV_CMD_VIDEO_START_CAPTURE
	case CameraActionStopVideo:
		it.Command = common.MAV_CMD_VIDEO_STOP_CAPTURE
	default:
		return nil
	}
	return it
}

func isSet(v float32) bool {
	return !math.IsNaN(float64(v))
}
