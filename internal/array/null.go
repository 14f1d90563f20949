package array

// Null is an array whose every entry is null. It owns no buffers.
type Null struct {
	array
}

func (a *Null) IsNull(i int) bool          { return true }
func (a *Null) IsValid(i int) bool         { return false }
func (a *Null) ValueStr(i int) string      { return NullValueStr }
func (a *Null) GetOneForMarshal(i int) any { return nil }
func (a *Null) String() string             { return formatArray(a, false) }
