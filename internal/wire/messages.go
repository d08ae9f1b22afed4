// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package wire

// Message is a typed record carried by a Frame.
type Message interface {
	Kind() Kind
}

func newMessage(k Kind) Message {
	switch k {
	case KindHeartbeat:
		return &Heartbeat{}
	case KindSysStatus:
		return &SysStatus{}
	case KindParamRequestRead:
		return &ParamRequestRead{}
	case KindParamValue:
		return &ParamValue{}
	case KindParamSet:
		return &ParamSet{}
	case KindGPSRawInt:
		return &GPSRawInt{}
	case KindGlobalPositionInt:
		return &GlobalPositionInt{}
	case KindMissionCount:
		return &MissionCount{}
	case KindMissionAck:
		return &MissionAck{}
	case KindCommandInt:
		return &CommandInt{}
	case KindCommandLong:
		return &CommandLong{}
	case KindCommandAck:
		return &CommandAck{}
	case KindFileTransfer:
		return &FileTransfer{}
	case KindAutopilotVersion:
		return &AutopilotVersion{}
	case KindLEDControl:
		return &LEDControl{}
	default:
		return nil
	}
}

// CommandLong is a command with seven float parameters.
type CommandLong struct {
	_            struct{} `cbor:",toarray"`
	Command      CommandID
	Confirmation uint8
	Params       [7]float32
}

func (CommandLong) Kind() Kind { return KindCommandLong }

// CommandInt is a command whose position parameters are integers.
type CommandInt struct {
	_       struct{} `cbor:",toarray"`
	Command CommandID
	Frame   uint8
	Params  [4]float32
	X       int32
	Y       int32
	Z       float32
}

func (CommandInt) Kind() Kind { return KindCommandInt }

// CommandAck reports the outcome of a command.
type CommandAck struct {
	_       struct{} `cbor:",toarray"`
	Command CommandID
	Result  CommandResult
}

func (CommandAck) Kind() Kind { return KindCommandAck }

// ParamRequestRead asks for one named parameter.
type ParamRequestRead struct {
	_     struct{} `cbor:",toarray"`
	Name  string
	Index int16
}

func (ParamRequestRead) Kind() Kind { return KindParamRequestRead }

// ParamSet writes one named parameter.
type ParamSet struct {
	_     struct{} `cbor:",toarray"`
	Name  string
	Value float32
}

func (ParamSet) Kind() Kind { return KindParamSet }

// ParamValue reports the stored value of a parameter.
type ParamValue struct {
	_     struct{} `cbor:",toarray"`
	Name  string
	Value float32
	Count uint16
	Index uint16
}

func (ParamValue) Kind() Kind { return KindParamValue }

// MissionType selects the mission list a count refers to.
type MissionType uint8

const (
	MissionTypeMission MissionType = 0
	MissionTypeFence   MissionType = 1
	MissionTypeRally   MissionType = 2
)

func (t MissionType) String() string {
	switch t {
	case MissionTypeMission:
		return "mission"
	case MissionTypeFence:
		return "fence"
	case MissionTypeRally:
		return "rally"
	default:
		return "unknown"
	}
}

// MissionResult is the outcome reported in a MissionAck.
type MissionResult uint8

const (
	MissionAccepted MissionResult = 0
	MissionError    MissionResult = 1
)

// MissionCount proposes a mission upload.
type MissionCount struct {
	_           struct{} `cbor:",toarray"`
	Count       uint16
	MissionType MissionType
}

func (MissionCount) Kind() Kind { return KindMissionCount }

// MissionAck answers a MissionCount.
type MissionAck struct {
	_           struct{} `cbor:",toarray"`
	MissionType MissionType
	Result      MissionResult
}

func (MissionAck) Kind() Kind { return KindMissionAck }

// LEDControl asks a drone to identify itself.
type LEDControl struct {
	_        struct{} `cbor:",toarray"`
	Instance uint8
	Pattern  uint8
	Custom   []byte
}

func (LEDControl) Kind() Kind { return KindLEDControl }

// Heartbeat announces that a drone is alive.
type Heartbeat struct {
	_            struct{} `cbor:",toarray"`
	Type         uint8
	Autopilot    uint8
	BaseMode     uint8
	CustomMode   uint32
	SystemStatus uint8
}

func (Heartbeat) Kind() Kind { return KindHeartbeat }

// SysStatus reports battery and load.
type SysStatus struct {
	_                struct{} `cbor:",toarray"`
	VoltageMV        uint16
	CurrentCA        int16
	BatteryRemaining int8
	Load             uint16
}

func (SysStatus) Kind() Kind { return KindSysStatus }

// GPSRawInt is the unfiltered GNSS fix.
type GPSRawInt struct {
	_          struct{} `cbor:",toarray"`
	TimeUsec   uint64
	FixType    uint8
	Lat        int32 // degE7
	Lon        int32 // degE7
	AltMM      int32
	Satellites uint8
}

func (GPSRawInt) Kind() Kind { return KindGPSRawInt }

// GlobalPositionInt is the filtered position estimate.
type GlobalPositionInt struct {
	_             struct{} `cbor:",toarray"`
	TimeBootMS    uint32
	Lat           int32 // degE7
	Lon           int32 // degE7
	AltMM         int32
	RelativeAltMM int32
	VX, VY, VZ    int16  // cm/s
	Heading       uint16 // cdeg
}

func (GlobalPositionInt) Kind() Kind { return KindGlobalPositionInt }

// AutopilotVersion advertises capabilities.
type AutopilotVersion struct {
	_               struct{} `cbor:",toarray"`
	Capabilities    uint64
	FlightSWVersion uint32
	UID             uint64
}

func (AutopilotVersion) Kind() Kind { return KindAutopilotVersion }
