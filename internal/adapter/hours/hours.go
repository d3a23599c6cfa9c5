package hours

import (
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/example/bloom-wire-service/internal/domain"
)

// Clock — предикат рабочего времени из конфигурации вида "09:00-17:30" и
// списка дней "Mon,Tue,...". Любой пробел в конфигурации трактуется как
// "всегда открыто": интеграция не должна молча перестать принимать заказы
// из-за дырки в настройках.
type Clock struct {
	openMin  int
	closeMin int
	days     map[time.Weekday]bool
	loc      *time.Location
	ok       bool
	Now      func() time.Time
}

var weekdays = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

// New разбирает конфигурацию; ошибки логируются, предикат остаётся открытым.
func New(hoursSpec, daysSpec, tz string) *Clock {
	c := &Clock{}
	if hoursSpec == "" {
		return c
	}

	loc := time.Local
	if tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			log.Printf("business hours: bad timezone %q, staying open: %v", tz, err)
			return c
		}
		loc = l
	}

	parts := strings.SplitN(hoursSpec, "-", 2)
	if len(parts) != 2 {
		log.Printf("business hours: bad spec %q, staying open", hoursSpec)
		return c
	}
	open, err1 := parseClock(parts[0])
	closeAt, err2 := parseClock(parts[1])
	if err1 != nil || err2 != nil || closeAt <= open {
		log.Printf("business hours: bad spec %q, staying open", hoursSpec)
		return c
	}

	days := map[time.Weekday]bool{}
	if daysSpec == "" {
		for d := time.Sunday; d <= time.Saturday; d++ {
			days[d] = true
		}
	} else {
		for _, name := range strings.Split(daysSpec, ",") {
			d, found := weekdays[strings.ToLower(strings.TrimSpace(name))]
			if !found {
				log.Printf("business hours: unknown day %q, staying open", name)
				return c
			}
			days[d] = true
		}
	}

	c.openMin, c.closeMin, c.days, c.loc, c.ok = open, closeAt, days, loc, true
	return c
}

func parseClock(s string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, err
	}
	m := 0
	if len(parts) == 2 {
		if m, err = strconv.Atoi(parts[1]); err != nil {
			return 0, err
		}
	}
	return h*60 + m, nil
}

func (c *Clock) IsOpenNow() bool {
	if !c.ok {
		return true
	}
	now := time.Now()
	if c.Now != nil {
		now = c.Now()
	}
	now = now.In(c.loc)
	if !c.days[now.Weekday()] {
		return false
	}
	minutes := now.Hour()*60 + now.Minute()
	return minutes >= c.openMin && minutes < c.closeMin
}

var _ domain.BusinessHours = (*Clock)(nil)
