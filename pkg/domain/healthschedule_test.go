package domain

import (
	"strings"
	"testing"
)

func TestGenerateHealthTasksPerPuppy(t *testing.T) {
	puppies := []Dog{
		{Base: Base{ID: "p3"}, Name: "Cleo"},
		{Base: Base{ID: "p1"}, Name: "Alba"},
		{Base: Base{ID: "p2"}, Name: "Bruno"},
	}
	template := HealthScheduleTemplate{
		Base: Base{ID: "tpl"},
		Name: "Vaccines",
		Items: []HealthScheduleItem{
			{TaskType: "vaccination", TaskName: "First vaccination", DaysFromBirth: 42, IsPerPuppy: true},
		},
	}
	tasks := GenerateHealthTasks("l1", Date(2024, 2, 1), puppies, template)
	if len(tasks) != 3 {
		t.Fatalf("expected one task per puppy, got %d", len(tasks))
	}
	for i, name := range []string{"Alba", "Bruno", "Cleo"} {
		task := tasks[i]
		if !task.DueDate.Equal(Date(2024, 3, 14)) {
			t.Fatalf("expected due 2024-03-14, got %v", task.DueDate)
		}
		if task.PuppyID == nil || !strings.HasSuffix(task.TaskName, name) {
			t.Fatalf("expected task for %s, got %+v", name, task)
		}
		if task.TemplateID == nil || *task.TemplateID != "tpl" || task.LitterID != "l1" {
			t.Fatalf("expected template and litter set, got %+v", task)
		}
	}
}

func TestGenerateHealthTasksDefaultTemplate(t *testing.T) {
	template := NewDefaultHealthTemplate()
	puppies := []Dog{{Base: Base{ID: "p1"}, Name: "A"}, {Base: Base{ID: "p2"}, Name: "B"}}
	tasks := GenerateHealthTasks("l1", Date(2024, 2, 1), puppies, template)

	var perPuppy, litterWide int
	for _, item := range template.Items {
		if item.IsPerPuppy {
			perPuppy++
		} else {
			litterWide++
		}
	}
	if len(tasks) != perPuppy*len(puppies)+litterWide {
		t.Fatalf("unexpected task count %d", len(tasks))
	}
	for _, task := range tasks {
		if task.TemplateID != nil {
			t.Fatalf("expected no template id for an unsaved template")
		}
		if err := task.Validate(); err != nil {
			t.Fatalf("generated task invalid: %v", err)
		}
	}
	if !template.IsDefault || template.Validate() != nil {
		t.Fatalf("expected a valid default template")
	}
}
