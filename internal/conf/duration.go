package conf

import (
	"regexp"
	"strconv"
	"time"
)

var reDays = regexp.MustCompile("^(-?[0-9]+)d")

// Duration is a duration unmarshaled/marshaled from/to a string (not a
// number), with day-suffix support on top of time.ParseDuration.
type Duration time.Duration

func (d Duration) String() string {
	v := d
	negative := false
	if v < 0 {
		negative = true
		v = -v
	}

	day := Duration(86400 * time.Second)
	days := v / day
	nonDays := v % day

	out := ""
	if negative {
		out += "-"
	}
	if days > 0 {
		out += strconv.FormatInt(int64(days), 10) + "d"
	}
	if nonDays != 0 || out == "" {
		out += time.Duration(nonDays).String()
	}
	return out
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var in string
	if err := unmarshal(&in); err != nil {
		return err
	}
	return d.unmarshalInternal(in)
}

func (d *Duration) unmarshalInternal(in string) error {
	negative := false
	var days int64

	if m := reDays.FindStringSubmatch(in); m != nil {
		days, _ = strconv.ParseInt(m[1], 10, 64)
		if days < 0 {
			negative = true
			days = -days
		}
		in = in[len(m[0]):]
	}

	var nonDays time.Duration
	if len(in) != 0 {
		var err error
		nonDays, err = time.ParseDuration(in)
		if err != nil {
			return err
		}
	}

	nonDays += time.Duration(days) * 24 * time.Hour
	if negative {
		nonDays = -nonDays
	}

	*d = Duration(nonDays)
	return nil
}
