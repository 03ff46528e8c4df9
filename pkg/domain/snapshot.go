package domain

// CurrentSchemaVersion is the snapshot layout written by this version.
const CurrentSchemaVersion = 3

// Snapshot is the complete kennel dataset, keyed by record id per entity type.
type Snapshot struct {
	SchemaVersion     int                               `json:"schema_version"`
	Dogs              map[string]Dog                    `json:"dogs"`
	Litters           map[string]Litter                 `json:"litters"`
	HeatCycles        map[string]HeatCycle              `json:"heat_cycles"`
	HeatEvents        map[string]HeatEvent              `json:"heat_events"`
	Vaccinations      map[string]VaccinationRecord      `json:"vaccinations"`
	WeightEntries     map[string]WeightEntry            `json:"weight_entries"`
	MedicalRecords    map[string]MedicalRecord          `json:"medical_records"`
	Transports        map[string]Transport              `json:"transports"`
	Expenses          map[string]Expense                `json:"expenses"`
	Clients           map[string]Client                 `json:"clients"`
	Sales             map[string]Sale                   `json:"sales"`
	SalePuppies       map[string]SalePuppy              `json:"sale_puppies"`
	ClientInterests   map[string]ClientInterest         `json:"client_interests"`
	WaitlistEntries   map[string]WaitlistEntry          `json:"waitlist_entries"`
	CommunicationLogs map[string]CommunicationLog       `json:"communication_logs"`
	GeneticTests      map[string]GeneticTest            `json:"genetic_tests"`
	PuppyHealthTasks  map[string]PuppyHealthTask        `json:"puppy_health_tasks"`
	HealthTemplates   map[string]HealthScheduleTemplate `json:"health_schedule_templates"`
	DogPhotos         map[string]DogPhoto               `json:"dog_photos"`
	LitterPhotos      map[string]LitterPhoto            `json:"litter_photos"`
	Documents         map[string]Document               `json:"documents"`
	DocumentTags      map[string]DocumentTag            `json:"document_tags"`
	DocumentTagLinks  map[string]DocumentTagLink        `json:"document_tag_links"`
	DogDocuments      map[string]DogDocument            `json:"dog_documents"`
	LitterDocuments   map[string]LitterDocument         `json:"litter_documents"`
	ExpenseDocuments  map[string]ExpenseDocument        `json:"expense_documents"`
}

// NewSnapshot returns an empty snapshot at the current schema version with
// every map allocated.
func NewSnapshot() Snapshot {
	s := Snapshot{SchemaVersion: CurrentSchemaVersion}
	s.EnsureMaps()
	return s
}

// EnsureMaps allocates nil maps, as left behind by JSON payloads that omit
// entity types.
func (s *Snapshot) EnsureMaps() {
	ensure(&s.Dogs)
	ensure(&s.Litters)
	ensure(&s.HeatCycles)
	ensure(&s.HeatEvents)
	ensure(&s.Vaccinations)
	ensure(&s.WeightEntries)
	ensure(&s.MedicalRecords)
	ensure(&s.Transports)
	ensure(&s.Expenses)
	ensure(&s.Clients)
	ensure(&s.Sales)
	ensure(&s.SalePuppies)
	ensure(&s.ClientInterests)
	ensure(&s.WaitlistEntries)
	ensure(&s.CommunicationLogs)
	ensure(&s.GeneticTests)
	ensure(&s.PuppyHealthTasks)
	ensure(&s.HealthTemplates)
	ensure(&s.DogPhotos)
	ensure(&s.LitterPhotos)
	ensure(&s.Documents)
	ensure(&s.DocumentTags)
	ensure(&s.DocumentTagLinks)
	ensure(&s.DogDocuments)
	ensure(&s.LitterDocuments)
	ensure(&s.ExpenseDocuments)
}

// Counts returns the number of records per entity type.
func (s Snapshot) Counts() map[EntityType]int {
	return map[EntityType]int{
		EntityDog:              len(s.Dogs),
		EntityLitter:           len(s.Litters),
		EntityHeatCycle:        len(s.HeatCycles),
		EntityHeatEvent:        len(s.HeatEvents),
		EntityVaccination:      len(s.Vaccinations),
		EntityWeightEntry:      len(s.WeightEntries),
		EntityMedicalRecord:    len(s.MedicalRecords),
		EntityTransport:        len(s.Transports),
		EntityExpense:          len(s.Expenses),
		EntityClient:           len(s.Clients),
		EntitySale:             len(s.Sales),
		EntitySalePuppy:        len(s.SalePuppies),
		EntityClientInterest:   len(s.ClientInterests),
		EntityWaitlistEntry:    len(s.WaitlistEntries),
		EntityCommunicationLog: len(s.CommunicationLogs),
		EntityGeneticTest:      len(s.GeneticTests),
		EntityPuppyHealthTask:  len(s.PuppyHealthTasks),
		EntityHealthTemplate:   len(s.HealthTemplates),
		EntityDogPhoto:         len(s.DogPhotos),
		EntityLitterPhoto:      len(s.LitterPhotos),
		EntityDocument:         len(s.Documents),
		EntityDocumentTag:      len(s.DocumentTags),
		EntityDocumentTagLink:  len(s.DocumentTagLinks),
		EntityDogDocument:      len(s.DogDocuments),
		EntityLitterDocument:   len(s.LitterDocuments),
		EntityExpenseDocument:  len(s.ExpenseDocuments),
	}
}

func ensure[T any](m *map[string]T) {
	if *m == nil {
		*m = make(map[string]T)
	}
}
