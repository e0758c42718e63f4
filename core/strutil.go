package core

// itoa converts an integer to a string without using fmt package
// This is a lightweight alternative for embedded systems
func itoa(n int) string {
	if n < 0 {
		return "-" + utoa(uint32(-n))
	}
	return utoa(uint32(n))
}

// utoa converts an unsigned integer to a string
func utoa(n uint32) string {
	if n == 0 {
		return "0"
	}

	var buf [10]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[pos:])
}

// FormatState renders a servo state on one line for debug output
func FormatState(st ServoState) string {
	return "width=" + itoa(int(st.Width)) +
		" dir=" + st.Direction.String() +
		" mode=" + st.Mode.String() +
		" compare=" + utoa(st.Compare) +
		" periods=" + utoa(st.Periods) +
		" overruns=" + utoa(st.Overruns)
}
