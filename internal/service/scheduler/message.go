package scheduler

import (
	"fmt"

	"github.com/jwalitptl/notify-api/internal/model"
	"github.com/jwalitptl/notify-api/pkg/pluralize"
)

// Remaining-time buckets for reminder message wording, in seconds.
const (
	secondsPerMinute = 60
	secondsPerHour   = 3600
	secondsPerDay    = 86400
)

type localeStrings struct {
	entities      map[model.EntityType]string
	reminderTitle string
	deadlineTitle string
	remainingBody string // fmt: entity label, count, unit form
	deadlineBody  string // fmt: entity label
	minutes       pluralize.Forms
	hours         pluralize.Forms
	days          pluralize.Forms
}

var locales = map[string]localeStrings{
	"ru": {
		entities: map[model.EntityType]string{
			model.EntityTypeTest:   "тест",
			model.EntityTypeCourse: "курс",
			model.EntityTypeTask:   "задача",
		},
		reminderTitle: "Напоминание о дедлайне",
		deadlineTitle: "Дедлайн наступил",
		remainingBody: "Не забудьте: %s. Осталось %d %s.",
		deadlineBody:  "Наступил срок выполнения: %s.",
		minutes:       pluralize.Forms{pluralize.One: "минута", pluralize.Few: "минуты", pluralize.Many: "минут"},
		hours:         pluralize.Forms{pluralize.One: "час", pluralize.Few: "часа", pluralize.Many: "часов"},
		days:          pluralize.Forms{pluralize.One: "день", pluralize.Few: "дня", pluralize.Many: "дней"},
	},
	"en": {
		entities: map[model.EntityType]string{
			model.EntityTypeTest:   "test",
			model.EntityTypeCourse: "course",
			model.EntityTypeTask:   "task",
		},
		reminderTitle: "Deadline reminder",
		deadlineTitle: "Deadline reached",
		remainingBody: "Don't forget: %s. %d %s remaining.",
		deadlineBody:  "The deadline for your %s has arrived.",
		minutes:       pluralize.Forms{pluralize.One: "minute", pluralize.Other: "minutes"},
		hours:         pluralize.Forms{pluralize.One: "hour", pluralize.Other: "hours"},
		days:          pluralize.Forms{pluralize.One: "day", pluralize.Other: "days"},
	},
}

type messageBuilder struct {
	locale  string
	strings localeStrings
}

func newMessageBuilder(locale string) messageBuilder {
	strs, ok := locales[locale]
	if !ok {
		locale = "en"
		strs = locales["en"]
	}
	return messageBuilder{locale: locale, strings: strs}
}

// build renders the reminder title and body for a lead interval given in
// seconds. The unit is the largest one the interval fills at least once.
func (b messageBuilder) build(entityType model.EntityType, interval int64) (title, body string) {
	entity := b.strings.entities[entityType]

	if interval == 0 {
		return b.strings.deadlineTitle, fmt.Sprintf(b.strings.deadlineBody, entity)
	}

	var count int64
	var forms pluralize.Forms
	switch {
	case interval < secondsPerHour:
		count = interval / secondsPerMinute
		if count == 0 {
			count = 1
		}
		forms = b.strings.minutes
	case interval < secondsPerDay:
		count = interval / secondsPerHour
		forms = b.strings.hours
	default:
		count = interval / secondsPerDay
		forms = b.strings.days
	}

	unit := forms.For(b.locale, count)
	return b.strings.reminderTitle, fmt.Sprintf(b.strings.remainingBody, entity, count, unit)
}
