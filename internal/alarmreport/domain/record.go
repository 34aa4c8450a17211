package alarmreport

// AckState is the acknowledgement code stored by the historian.
type AckState int

const (
	AckStateUnknown AckState = -1
	AckStateAck     AckState = 0
	AckStateUnacked AckState = 1
)

// Label returns the report label for the ack state.
func (s AckState) Label() string {
	switch s {
	case AckStateAck:
		return "Ack"
	case AckStateUnacked:
		return "Unacked"
	default:
		return "Unknown"
	}
}

// AlarmClass is the severity code stored by the historian.
type AlarmClass int

const (
	AlarmClassUnknown  AlarmClass = -1
	AlarmClassNormal   AlarmClass = 0
	AlarmClassCritical AlarmClass = 1
	AlarmClassDefault  AlarmClass = 2
)

// Label returns the report label for the alarm class.
func (c AlarmClass) Label() string {
	switch c {
	case AlarmClassNormal:
		return "Normal"
	case AlarmClassCritical:
		return "Critical"
	case AlarmClassDefault:
		return "Default"
	default:
		return "Unknown"
	}
}

// DefaultMessageText is written on every record; the historian message is not read.
const DefaultMessageText = "HUMIDITY NORMAL"

// AlarmRecord is one normalized historian event row.
// Timestamps are epoch milliseconds.
type AlarmRecord struct {
	Source          string     `json:"source"`
	AckState        AckState   `json:"ack_state"`
	AlarmClass      AlarmClass `json:"alarm_class"`
	NormalTime      int64      `json:"normal_time"`
	AckTime         int64      `json:"ack_time"`
	TimeOfLastAlarm int64      `json:"time_of_last_alarm"`
	MessageText     string     `json:"message_text"`
}
