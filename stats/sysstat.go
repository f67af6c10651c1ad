package stats

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/juju/errors"
)

// Built-in Linux sources so the binary renders useful data without an
// external collector. Anything fancier (GPU, SMART, fans) plugs in through
// the Source interface.

func ClockSource(interval time.Duration, layout string) Source {
	if layout == "" {
		layout = "15:04:05"
	}
	return &FuncSource{
		SourceKey:    "clock",
		PollInterval: interval,
		ReadFunc: func() (Value, error) {
			return Str(time.Now().Format(layout)), nil
		},
	}
}

// LoadAvgSource reads the 1-minute load average from /proc/loadavg.
func LoadAvgSource(interval time.Duration) Source {
	return &FuncSource{
		SourceKey:    "load_avg",
		PollInterval: interval,
		ReadFunc: func() (Value, error) {
			b, err := os.ReadFile("/proc/loadavg")
			if err != nil {
				return None, errors.Trace(err)
			}
			fields := strings.Fields(string(b))
			if len(fields) < 1 {
				return None, errors.Errorf("loadavg: empty")
			}
			f, err := strconv.ParseFloat(fields[0], 64)
			if err != nil {
				return None, errors.Annotate(err, "loadavg")
			}
			return Num(f, ""), nil
		},
	}
}

// MemUsedSource reports used memory percent from /proc/meminfo.
func MemUsedSource(interval time.Duration) Source {
	return &FuncSource{
		SourceKey:    "mem_used",
		PollInterval: interval,
		ReadFunc: func() (Value, error) {
			f, err := os.Open("/proc/meminfo")
			if err != nil {
				return None, errors.Trace(err)
			}
			defer f.Close()
			var total, avail float64
			sc := bufio.NewScanner(f)
			for sc.Scan() {
				fields := strings.Fields(sc.Text())
				if len(fields) < 2 {
					continue
				}
				switch fields[0] {
				case "MemTotal:":
					total, _ = strconv.ParseFloat(fields[1], 64)
				case "MemAvailable:":
					avail, _ = strconv.ParseFloat(fields[1], 64)
				}
			}
			if err = sc.Err(); err != nil {
				return None, errors.Trace(err)
			}
			if total <= 0 {
				return None, errors.Errorf("meminfo: no MemTotal")
			}
			pct := (total - avail) / total * 100
			return Num(float64(int(pct*10))/10, "%"), nil
		},
	}
}
