package domain

import (
	"fmt"
	"sort"
	"time"
)

// DefaultHealthTemplateName names the lazily created built-in template.
const DefaultHealthTemplateName = "Standard 8-week puppy schedule"

// DefaultHealthSchedule returns the built-in 8-week schedule items.
func DefaultHealthSchedule() []HealthScheduleItem {
	return []HealthScheduleItem{
		{TaskType: "weight_check", TaskName: "Birth weight", DaysFromBirth: 0, IsPerPuppy: true},
		{TaskType: "vet_check", TaskName: "Newborn litter exam", DaysFromBirth: 2, IsPerPuppy: false},
		{TaskType: "dewclaw", TaskName: "Dewclaw check", DaysFromBirth: 3, IsPerPuppy: true},
		{TaskType: "deworming", TaskName: "Deworming (2 weeks)", DaysFromBirth: 14, IsPerPuppy: true},
		{TaskType: "socialization", TaskName: "Start socialization program", DaysFromBirth: 21, IsPerPuppy: false},
		{TaskType: "deworming", TaskName: "Deworming (4 weeks)", DaysFromBirth: 28, IsPerPuppy: true},
		{TaskType: "vaccination", TaskName: "First vaccination (DHPP)", DaysFromBirth: 42, IsPerPuppy: true},
		{TaskType: "microchip", TaskName: "Microchip", DaysFromBirth: 49, IsPerPuppy: true},
		{TaskType: "evaluation", TaskName: "Temperament evaluation", DaysFromBirth: 49, IsPerPuppy: true},
		{TaskType: "deworming", TaskName: "Deworming (8 weeks)", DaysFromBirth: 56, IsPerPuppy: true},
		{TaskType: "vet_check", TaskName: "Go-home vet exam", DaysFromBirth: 56, IsPerPuppy: true},
	}
}

// NewDefaultHealthTemplate builds the built-in template without an id.
func NewDefaultHealthTemplate() HealthScheduleTemplate {
	return HealthScheduleTemplate{
		Name:        DefaultHealthTemplateName,
		Description: "Weight checks, deworming, first vaccination, microchip and go-home exam over the first 8 weeks.",
		IsDefault:   true,
		Items:       DefaultHealthSchedule(),
	}
}

// GenerateHealthTasks expands a template into tasks for a litter. Per-puppy
// items produce one task per puppy with the puppy's name appended; other items
// produce a single litter-wide task. Due dates are whelpDate plus the item's
// offset. Items keep template order and puppies are ordered by name.
func GenerateHealthTasks(litterID string, whelpDate time.Time, puppies []Dog, template HealthScheduleTemplate) []PuppyHealthTask {
	ordered := append([]Dog(nil), puppies...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Name != ordered[j].Name {
			return ordered[i].Name < ordered[j].Name
		}
		return ordered[i].ID < ordered[j].ID
	})

	var templateID *string
	if template.ID != "" {
		id := template.ID
		templateID = &id
	}

	var tasks []PuppyHealthTask
	for _, item := range template.Items {
		due := AddDays(whelpDate, item.DaysFromBirth)
		if !item.IsPerPuppy {
			tasks = append(tasks, PuppyHealthTask{
				LitterID:   litterID,
				TemplateID: templateID,
				TaskType:   item.TaskType,
				TaskName:   item.TaskName,
				DueDate:    due,
				Notes:      item.Notes,
			})
			continue
		}
		for _, pup := range ordered {
			puppyID := pup.ID
			tasks = append(tasks, PuppyHealthTask{
				LitterID:   litterID,
				PuppyID:    &puppyID,
				TemplateID: templateID,
				TaskType:   item.TaskType,
				TaskName:   fmt.Sprintf("%s - %s", item.TaskName, pup.Name),
				DueDate:    due,
				Notes:      item.Notes,
			})
		}
	}
	return tasks
}
