package array

import (
	"time"

	"github.com/paveg/colframe/internal/datatype"
)

// Date32Layout is how date32 values render and parse.
const Date32Layout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

// Timestamp is an array of int64 instants counted in the type's unit.
type Timestamp struct {
	array
	values []int64
}

func (a *Timestamp) setData(d *Data) {
	a.array.setData(d)
	a.values = nil
	if vals := d.buffers[1]; vals != nil {
		a.values = reinterpret[int64](vals.Bytes())[d.offset : d.offset+d.length]
	}
}

// Value returns the raw tick count of entry i.
func (a *Timestamp) Value(i int) int64 { return a.values[i] }

// Values returns the raw tick counts of the view.
func (a *Timestamp) Values() []int64 { return a.values }

// Get returns entry i, or an IndexOutOfRange error.
func (a *Timestamp) Get(i int) (int64, error) {
	if err := checkIndex("Get", i, a.Len()); err != nil {
		return 0, err
	}
	return a.values[i], nil
}

// Time converts entry i to a time.Time in the type's timezone.
func (a *Timestamp) Time(i int) time.Time {
	tt := a.data.dtype.(*datatype.TimestampType)
	t := TimestampToTime(a.values[i], tt.Unit)
	if loc, err := tt.Location(); err == nil {
		t = t.In(loc)
	}
	return t
}

func (a *Timestamp) ValueStr(i int) string {
	if a.IsNull(i) {
		return NullValueStr
	}
	return a.Time(i).Format(time.RFC3339Nano)
}

func (a *Timestamp) GetOneForMarshal(i int) any {
	if a.IsNull(i) {
		return nil
	}
	return a.values[i]
}

func (a *Timestamp) String() string { return formatArray(a, false) }

// Date32 is an array of int32 day counts since the Unix epoch.
type Date32 struct {
	array
	values []int32
}

func (a *Date32) setData(d *Data) {
	a.array.setData(d)
	a.values = nil
	if vals := d.buffers[1]; vals != nil {
		a.values = reinterpret[int32](vals.Bytes())[d.offset : d.offset+d.length]
	}
}

// Value returns the day count of entry i.
func (a *Date32) Value(i int) int32 { return a.values[i] }

// Values returns the day counts of the view.
func (a *Date32) Values() []int32 { return a.values }

// Get returns entry i, or an IndexOutOfRange error.
func (a *Date32) Get(i int) (int32, error) {
	if err := checkIndex("Get", i, a.Len()); err != nil {
		return 0, err
	}
	return a.values[i], nil
}

// Time returns midnight UTC of entry i.
func (a *Date32) Time(i int) time.Time {
	return Date32ToTime(a.values[i])
}

func (a *Date32) ValueStr(i int) string {
	if a.IsNull(i) {
		return NullValueStr
	}
	return a.Time(i).Format(Date32Layout)
}

func (a *Date32) GetOneForMarshal(i int) any {
	if a.IsNull(i) {
		return nil
	}
	return a.values[i]
}

func (a *Date32) String() string { return formatArray(a, false) }

// TimestampToTime converts a tick count of unit to a UTC time.Time.
func TimestampToTime(v int64, unit datatype.TimeUnit) time.Time {
	switch unit {
	case datatype.Millisecond:
		return time.UnixMilli(v).UTC()
	case datatype.Microsecond:
		return time.UnixMicro(v).UTC()
	case datatype.Nanosecond:
		return time.Unix(0, v).UTC()
	}
	return time.Unix(v, 0).UTC()
}

// TimeToTimestamp converts t to a tick count of unit, truncating toward
// negative infinity below the unit.
func TimeToTimestamp(t time.Time, unit datatype.TimeUnit) int64 {
	switch unit {
	case datatype.Millisecond:
		return t.UnixMilli()
	case datatype.Microsecond:
		return t.UnixMicro()
	case datatype.Nanosecond:
		return t.UnixNano()
	}
	return t.Unix()
}

// Date32ToTime returns midnight UTC of the given day count.
func Date32ToTime(days int32) time.Time {
	return time.Unix(int64(days)*secondsPerDay, 0).UTC()
}

// TimeToDate32 returns the day count of t's UTC calendar date.
func TimeToDate32(t time.Time) int32 {
	secs := t.Unix()
	days := secs / secondsPerDay
	if secs%secondsPerDay < 0 {
		days--
	}
	return int32(days)
}
