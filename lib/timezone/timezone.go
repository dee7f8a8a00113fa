package timezone

import (
	"time"
	_ "time/tzdata"
)

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Europe/Warsaw")
	if err != nil {
		panic(err)
	}
}

// calculator results are tied to the Polish tax year, so run
// timestamps are recorded and displayed in Warsaw time regardless
// of where the tool runs.
func Now() time.Time {
	return time.Now().In(Location)
}

// In converts t to Warsaw time.
func In(t time.Time) time.Time {
	return t.In(Location)
}
