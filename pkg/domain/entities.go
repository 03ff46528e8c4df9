// Package domain defines the kennel's persistent entities, value types, pure
// breeding algorithms and the rule evaluation primitives used by kennelcore.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntityType identifies the type of record stored in the kennel dataset.
type EntityType string

// Supported entity type identifiers used in Change records and persistence rows.
const (
	// EntityDog identifies an individual dog record.
	EntityDog              EntityType = "dog"
	// EntityLitter identifies a litter record.
	EntityLitter           EntityType = "litter"
	// EntityHeatCycle identifies a reproductive cycle of a female.
	EntityHeatCycle        EntityType = "heat_cycle"
	// EntityHeatEvent identifies an observation recorded against a heat cycle.
	EntityHeatEvent        EntityType = "heat_event"
	EntityVaccination      EntityType = "vaccination"
	EntityWeightEntry      EntityType = "weight_entry"
	EntityMedicalRecord    EntityType = "medical_record"
	EntityTransport        EntityType = "transport"
	EntityExpense          EntityType = "expense"
	EntityClient           EntityType = "client"
	EntitySale             EntityType = "sale"
	EntitySalePuppy        EntityType = "sale_puppy"
	EntityClientInterest   EntityType = "client_interest"
	EntityWaitlistEntry    EntityType = "waitlist_entry"
	EntityCommunicationLog EntityType = "communication_log"
	EntityGeneticTest      EntityType = "genetic_test"
	EntityPuppyHealthTask  EntityType = "puppy_health_task"
	EntityHealthTemplate   EntityType = "health_schedule_template"
	EntityDogPhoto         EntityType = "dog_photo"
	EntityLitterPhoto      EntityType = "litter_photo"
	EntityDocument         EntityType = "document"
	EntityDocumentTag      EntityType = "document_tag"
	EntityDocumentTagLink  EntityType = "document_tag_link"
	EntityDogDocument      EntityType = "dog_document"
	EntityLitterDocument   EntityType = "litter_document"
	EntityExpenseDocument  EntityType = "expense_document"
)

// Sex of a dog.
type Sex string

// Supported sexes.
const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// DogStatus tracks where a dog is in its life with the kennel.
type DogStatus string

// Canonical dog statuses. Sale bookkeeping flips dogs between active and sold.
const (
	DogStatusActive   DogStatus = "active"
	DogStatusSold     DogStatus = "sold"
	DogStatusRetired  DogStatus = "retired"
	DogStatusDeceased DogStatus = "deceased"
)

// LitterStatus is the litter pipeline stage.
type LitterStatus string

// Litter pipeline in order.
const (
	LitterStatusPlanned             LitterStatus = "planned"
	LitterStatusBred                LitterStatus = "bred"
	LitterStatusUltrasoundConfirmed LitterStatus = "ultrasound_confirmed"
	LitterStatusXrayConfirmed       LitterStatus = "xray_confirmed"
	LitterStatusWhelped             LitterStatus = "whelped"
	LitterStatusWeaning             LitterStatus = "weaning"
	LitterStatusReadyToGo           LitterStatus = "ready_to_go"
	LitterStatusCompleted           LitterStatus = "completed"
)

// ConfirmationMethod describes how a pregnancy was confirmed.
type ConfirmationMethod string

// Supported pregnancy confirmation methods.
const (
	ConfirmationUltrasound ConfirmationMethod = "ultrasound"
	ConfirmationXray       ConfirmationMethod = "xray"
	ConfirmationRelaxin    ConfirmationMethod = "relaxin"
	ConfirmationPalpation  ConfirmationMethod = "palpation"
)

// HeatPhase is a stage of the estrus cycle.
type HeatPhase string

// Estrus cycle phases.
const (
	PhaseProestrus HeatPhase = "proestrus"
	PhaseEstrus    HeatPhase = "estrus"
	PhaseDiestrus  HeatPhase = "diestrus"
	PhaseAnestrus  HeatPhase = "anestrus"
)

// HeatEventType tags an observation made during a heat cycle.
type HeatEventType string

// Heat event types. Breeding variants all count as a breeding.
const (
	HeatEventBleeding         HeatEventType = "bleeding"
	HeatEventDischarge        HeatEventType = "discharge"
	HeatEventStanding         HeatEventType = "standing"
	HeatEventEndReceptive     HeatEventType = "end_receptive"
	HeatEventProgesteroneTest HeatEventType = "progesterone_test"
	HeatEventLHSurge          HeatEventType = "lh_surge"
	HeatEventBreedingNatural  HeatEventType = "breeding_natural"
	HeatEventBreedingAI       HeatEventType = "breeding_ai"
	HeatEventBreedingTCI      HeatEventType = "breeding_tci"
	HeatEventBreedingSurgical HeatEventType = "breeding_surgical"
	HeatEventOvulation        HeatEventType = "ovulation"
	HeatEventCycleEnd         HeatEventType = "cycle_end"
	HeatEventOther            HeatEventType = "other"
)

// IsBreeding reports whether the event records a mating or insemination.
func (t HeatEventType) IsBreeding() bool {
	switch t {
	case HeatEventBreedingNatural, HeatEventBreedingAI, HeatEventBreedingTCI, HeatEventBreedingSurgical:
		return true
	}
	return false
}

// WeightUnit is the unit a weight entry was recorded in.
type WeightUnit string

// Supported weight units.
const (
	WeightUnitPound    WeightUnit = "lb"
	WeightUnitKilogram WeightUnit = "kg"
)

// MedicalRecordType classifies a medical record.
type MedicalRecordType string

// Medical record types.
const (
	MedicalExam       MedicalRecordType = "exam"
	MedicalSurgery    MedicalRecordType = "surgery"
	MedicalIllness    MedicalRecordType = "illness"
	MedicalInjury     MedicalRecordType = "injury"
	MedicalTest       MedicalRecordType = "test"
	MedicalMedication MedicalRecordType = "medication"
	MedicalOther      MedicalRecordType = "other"
)

// TransportMode describes how a dog travelled.
type TransportMode string

// Transport modes.
const (
	TransportFlight TransportMode = "flight"
	TransportGround TransportMode = "ground"
	TransportPickup TransportMode = "pickup"
	TransportOther  TransportMode = "other"
)

// ExpenseCategory is a closed set of expense categories. ExpenseCustom
// defers to Expense.CustomCategory for the label.
type ExpenseCategory string

// Expense categories.
const (
	ExpenseVet          ExpenseCategory = "vet"
	ExpenseFood         ExpenseCategory = "food"
	ExpenseSupplies     ExpenseCategory = "supplies"
	ExpenseBreeding     ExpenseCategory = "breeding"
	ExpenseRegistration ExpenseCategory = "registration"
	ExpenseTransport    ExpenseCategory = "transport"
	ExpenseMarketing    ExpenseCategory = "marketing"
	ExpenseEquipment    ExpenseCategory = "equipment"
	ExpenseGrooming     ExpenseCategory = "grooming"
	ExpenseTravel       ExpenseCategory = "travel"
	ExpenseOther        ExpenseCategory = "other"
	ExpenseCustom       ExpenseCategory = "custom"
)

// ExpenseCategories lists the built-in categories, custom last.
var ExpenseCategories = []ExpenseCategory{
	ExpenseVet, ExpenseFood, ExpenseSupplies, ExpenseBreeding, ExpenseRegistration,
	ExpenseTransport, ExpenseMarketing, ExpenseEquipment, ExpenseGrooming, ExpenseTravel,
	ExpenseOther, ExpenseCustom,
}

// PaymentStatus tracks money received for a sale.
type PaymentStatus string

// Payment statuses.
const (
	PaymentPending     PaymentStatus = "pending"
	PaymentDepositPaid PaymentStatus = "deposit_paid"
	PaymentPaid        PaymentStatus = "paid"
	PaymentRefunded    PaymentStatus = "refunded"
)

// SaleStatus tracks whether a sale still holds its puppies.
type SaleStatus string

// Sale statuses. Every status except cancelled counts as active.
const (
	SaleStatusPending   SaleStatus = "pending"
	SaleStatusCompleted SaleStatus = "completed"
	SaleStatusCancelled SaleStatus = "cancelled"
)

// InterestStatus is the state of a client's interest in a dog.
type InterestStatus string

// Interest workflow states. Converted and lost are terminal.
const (
	InterestInterested     InterestStatus = "interested"
	InterestContacted      InterestStatus = "contacted"
	InterestScheduledVisit InterestStatus = "scheduled_visit"
	InterestConverted      InterestStatus = "converted"
	InterestLost           InterestStatus = "lost"
)

// WaitlistStatus tracks a waitlist entry.
type WaitlistStatus string

// Waitlist statuses.
const (
	WaitlistWaiting   WaitlistStatus = "waiting"
	WaitlistMatched   WaitlistStatus = "matched"
	WaitlistFulfilled WaitlistStatus = "fulfilled"
	WaitlistCancelled WaitlistStatus = "cancelled"
)

// CommunicationChannel is the medium used to talk to a client.
type CommunicationChannel string

// Communication channels.
const (
	ChannelPhone    CommunicationChannel = "phone"
	ChannelEmail    CommunicationChannel = "email"
	ChannelText     CommunicationChannel = "text"
	ChannelInPerson CommunicationChannel = "in_person"
	ChannelSocial   CommunicationChannel = "social"
	ChannelOther    CommunicationChannel = "other"
)

// CommunicationDirection records who initiated a communication.
type CommunicationDirection string

// Communication directions.
const (
	DirectionInbound  CommunicationDirection = "inbound"
	DirectionOutbound CommunicationDirection = "outbound"
)

// GeneticResult is the outcome of a genetic test.
type GeneticResult string

// Genetic test results. Pending is treated as untested by compatibility checks.
const (
	GeneticClear    GeneticResult = "clear"
	GeneticCarrier  GeneticResult = "carrier"
	GeneticAffected GeneticResult = "affected"
	GeneticPending  GeneticResult = "pending"
)

// DocumentType classifies an uploaded document.
type DocumentType string

// Document types.
const (
	DocumentContract          DocumentType = "contract"
	DocumentHealthCertificate DocumentType = "health_certificate"
	DocumentRegistration      DocumentType = "registration"
	DocumentPedigree          DocumentType = "pedigree"
	DocumentInvoice           DocumentType = "invoice"
	DocumentReceipt           DocumentType = "receipt"
	DocumentPhoto             DocumentType = "photo"
	DocumentOther             DocumentType = "other"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RecordID returns the record identifier. Every entity embedding Base
// satisfies Record through it.
func (b Base) RecordID() string { return b.ID }

// BaseRecord exposes the embedded Base so persistence layers can stamp ids
// and timestamps generically.
func (b *Base) BaseRecord() *Base { return b }

// Record is implemented by every persisted entity.
type Record interface {
	RecordID() string
}

// Dog is an individual animal owned, bred or sold by the kennel.
type Dog struct {
	Base
	Name               string     `json:"name"`
	RegisteredName     string     `json:"registered_name,omitempty"`
	CallName           string     `json:"call_name,omitempty"`
	Breed              string     `json:"breed"`
	Sex                Sex        `json:"sex"`
	DateOfBirth        *time.Time `json:"date_of_birth"`
	Color              string     `json:"color,omitempty"`
	Markings           string     `json:"markings,omitempty"`
	Microchip          string     `json:"microchip,omitempty"`
	RegistrationNumber string     `json:"registration_number,omitempty"`
	Registry           string     `json:"registry,omitempty"`
	Status             DogStatus  `json:"status"`
	SireID             *string    `json:"sire_id"`
	DamID              *string    `json:"dam_id"`
	LitterID           *string    `json:"litter_id"`
	IsBreeding         bool       `json:"is_breeding"`
	EvaluationScore    *int       `json:"evaluation_score"`
	EvaluationNotes    string     `json:"evaluation_notes,omitempty"`
	Notes              string     `json:"notes,omitempty"`
}

// Litter is a single whelping and its puppies.
type Litter struct {
	Base
	Name               string              `json:"name"`
	SireID             *string             `json:"sire_id"`
	DamID              *string             `json:"dam_id"`
	BreedingDate       *time.Time          `json:"breeding_date"`
	DueDate            *time.Time          `json:"due_date"`
	WhelpDate          *time.Time          `json:"whelp_date"`
	PregnancyConfirmed bool                `json:"pregnancy_confirmed"`
	ConfirmationMethod *ConfirmationMethod `json:"confirmation_method"`
	ConfirmationDate   *time.Time          `json:"confirmation_date"`
	ExpectedCount      *int                `json:"expected_count"`
	TotalBorn          *int                `json:"total_born"`
	MalesBorn          *int                `json:"males_born"`
	FemalesBorn        *int                `json:"females_born"`
	Status             LitterStatus        `json:"status"`
	Notes              string              `json:"notes,omitempty"`
}

// HeatCycle is one reproductive cycle of a female. Every field below StartDate
// except Notes is derived from the cycle's events.
type HeatCycle struct {
	Base
	BitchID              string     `json:"bitch_id"`
	StartDate            time.Time  `json:"start_date"`
	Notes                string     `json:"notes,omitempty"`
	CurrentPhase         HeatPhase  `json:"current_phase"`
	EndDate              *time.Time `json:"end_date"`
	CycleLength          *int       `json:"cycle_length"`
	NextHeatEstimate     *time.Time `json:"next_heat_estimate"`
	StandingHeatStart    *time.Time `json:"standing_heat_start"`
	StandingHeatEnd      *time.Time `json:"standing_heat_end"`
	OvulationDate        *time.Time `json:"ovulation_date"`
	OptimalBreedingStart *time.Time `json:"optimal_breeding_start"`
	OptimalBreedingEnd   *time.Time `json:"optimal_breeding_end"`
	ExpectedDueDate      *time.Time `json:"expected_due_date"`
	IsBred               bool       `json:"is_bred"`
}

// HeatEvent is an observation within a heat cycle.
type HeatEvent struct {
	Base
	CycleID           string        `json:"cycle_id"`
	Date              time.Time     `json:"date"`
	Type              HeatEventType `json:"type"`
	ProgesteroneLevel *float64      `json:"progesterone_level"`
	SireID            *string       `json:"sire_id"`
	Notes             string        `json:"notes,omitempty"`
}

// VaccinationRecord captures one administered vaccine.
type VaccinationRecord struct {
	Base
	DogID        string     `json:"dog_id"`
	VaccineType  string     `json:"vaccine_type"`
	DateGiven    time.Time  `json:"date_given"`
	NextDueDate  *time.Time `json:"next_due_date"`
	Veterinarian string     `json:"veterinarian,omitempty"`
	LotNumber    string     `json:"lot_number,omitempty"`
	Notes        string     `json:"notes,omitempty"`
}

// WeightEntry records a dog's weight on a date.
type WeightEntry struct {
	Base
	DogID  string     `json:"dog_id"`
	Date   time.Time  `json:"date"`
	Weight float64    `json:"weight"`
	Unit   WeightUnit `json:"unit"`
	Notes  string     `json:"notes,omitempty"`
}

// MedicalRecord captures a veterinary event for a dog.
type MedicalRecord struct {
	Base
	DogID        string            `json:"dog_id"`
	Date         time.Time         `json:"date"`
	RecordType   MedicalRecordType `json:"record_type"`
	Description  string            `json:"description"`
	Diagnosis    string            `json:"diagnosis,omitempty"`
	Treatment    string            `json:"treatment,omitempty"`
	Veterinarian string            `json:"veterinarian,omitempty"`
	Cost         *decimal.Decimal  `json:"cost"`
	Notes        string            `json:"notes,omitempty"`
}

// Transport records a dog's trip. A nonzero cost owns an Expense via ExpenseID.
type Transport struct {
	Base
	DogID          string          `json:"dog_id"`
	Date           time.Time       `json:"date"`
	Mode           TransportMode   `json:"mode"`
	FromLocation   string          `json:"from_location,omitempty"`
	ToLocation     string          `json:"to_location,omitempty"`
	Carrier        string          `json:"carrier,omitempty"`
	TrackingNumber string          `json:"tracking_number,omitempty"`
	Cost           decimal.Decimal `json:"cost"`
	ExpenseID      *string         `json:"expense_id"`
	Notes          string          `json:"notes,omitempty"`
}

// Expense is a kennel cost, optionally attributed to a dog and/or a litter.
type Expense struct {
	Base
	Date           time.Time       `json:"date"`
	Amount         decimal.Decimal `json:"amount"`
	Category       ExpenseCategory `json:"category"`
	CustomCategory string          `json:"custom_category,omitempty"`
	Description    string          `json:"description,omitempty"`
	Vendor         string          `json:"vendor,omitempty"`
	DogID          *string         `json:"dog_id"`
	LitterID       *string         `json:"litter_id"`
	TaxDeductible  bool            `json:"tax_deductible"`
	ReceiptPath    string          `json:"receipt_path,omitempty"`
}

// CategoryLabel returns the display label of the expense category.
func (e Expense) CategoryLabel() string {
	if e.Category == ExpenseCustom && e.CustomCategory != "" {
		return e.CustomCategory
	}
	return string(e.Category)
}

// Client is a buyer or prospective buyer.
type Client struct {
	Base
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Address    string `json:"address,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// Sale is a purchase by a client. Puppies are attached through SalePuppy rows.
// ClientID becomes nil when the client is deleted; ClientName keeps the buyer.
type Sale struct {
	Base
	ClientID       *string          `json:"client_id"`
	ClientName     string           `json:"client_name,omitempty"`
	SaleDate       time.Time        `json:"sale_date"`
	Price          decimal.Decimal  `json:"price"`
	DepositAmount  *decimal.Decimal `json:"deposit_amount"`
	DepositDate    *time.Time       `json:"deposit_date"`
	PaymentStatus  PaymentStatus    `json:"payment_status"`
	Status         SaleStatus       `json:"status"`
	ContractSigned bool             `json:"contract_signed"`
	PickupDate     *time.Time       `json:"pickup_date"`
	Notes          string           `json:"notes,omitempty"`

	// LegacyDogID is the single-dog pointer of schema version 0 snapshots.
	// Migration turns it into a SalePuppy row and clears it.
	LegacyDogID *string `json:"dog_id,omitempty"`
}

// IsActive reports whether the sale still holds its puppies.
func (s Sale) IsActive() bool { return s.Status != SaleStatusCancelled }

// SalePuppy links one sold dog to a sale with its individual price.
type SalePuppy struct {
	Base
	SaleID string          `json:"sale_id"`
	DogID  string          `json:"dog_id"`
	Price  decimal.Decimal `json:"price"`
}

// ClientInterest tracks a client's interest in a particular dog.
type ClientInterest struct {
	Base
	ClientID          string         `json:"client_id"`
	DogID             string         `json:"dog_id"`
	Status            InterestStatus `json:"status"`
	InterestDate      time.Time      `json:"interest_date"`
	ConvertedToSaleID *string        `json:"converted_to_sale_id"`
	Notes             string         `json:"notes,omitempty"`
}

// WaitlistEntry holds a client's pick position, optionally for one litter.
type WaitlistEntry struct {
	Base
	ClientID       string           `json:"client_id"`
	LitterID       *string          `json:"litter_id"`
	Position       int              `json:"position"`
	PreferredSex   *Sex             `json:"preferred_sex"`
	PreferredColor string           `json:"preferred_color,omitempty"`
	DepositAmount  *decimal.Decimal `json:"deposit_amount"`
	DepositPaid    bool             `json:"deposit_paid"`
	Status         WaitlistStatus   `json:"status"`
	Notes          string           `json:"notes,omitempty"`
}

// CommunicationLog is a note about a conversation with a client.
type CommunicationLog struct {
	Base
	ClientID          string                 `json:"client_id"`
	Date              time.Time              `json:"date"`
	Channel           CommunicationChannel   `json:"channel"`
	Direction         CommunicationDirection `json:"direction"`
	Subject           string                 `json:"subject,omitempty"`
	Summary           string                 `json:"summary,omitempty"`
	FollowUpRequired  bool                   `json:"follow_up_required"`
	FollowUpDate      *time.Time             `json:"follow_up_date"`
	FollowUpCompleted bool                   `json:"follow_up_completed"`
}

// GeneticTest records a genetic screening result for a dog.
type GeneticTest struct {
	Base
	DogID             string        `json:"dog_id"`
	TestName          string        `json:"test_name"`
	Result            GeneticResult `json:"result"`
	Lab               string        `json:"lab,omitempty"`
	TestDate          *time.Time    `json:"test_date"`
	CertificateNumber string        `json:"certificate_number,omitempty"`
	Notes             string        `json:"notes,omitempty"`
}

// PuppyHealthTask is a scheduled health action for a litter or one puppy.
type PuppyHealthTask struct {
	Base
	LitterID      string     `json:"litter_id"`
	PuppyID       *string    `json:"puppy_id"`
	TemplateID    *string    `json:"template_id"`
	TaskType      string     `json:"task_type"`
	TaskName      string     `json:"task_name"`
	DueDate       time.Time  `json:"due_date"`
	IsCompleted   bool       `json:"is_completed"`
	CompletedDate *time.Time `json:"completed_date"`
	Notes         string     `json:"notes,omitempty"`
}

// HealthScheduleItem is one step of a health schedule template.
type HealthScheduleItem struct {
	TaskType      string `json:"task_type"`
	TaskName      string `json:"task_name"`
	DaysFromBirth int    `json:"days_from_birth"`
	IsPerPuppy    bool   `json:"is_per_puppy"`
	Notes         string `json:"notes,omitempty"`
}

// HealthScheduleTemplate is an ordered list of health steps keyed off whelp date.
type HealthScheduleTemplate struct {
	Base
	Name        string               `json:"name"`
	Description string               `json:"description,omitempty"`
	IsDefault   bool                 `json:"is_default"`
	Items       []HealthScheduleItem `json:"items"`
}

// DogPhoto is an image of a dog. At most one photo per dog is primary.
type DogPhoto struct {
	Base
	DogID     string     `json:"dog_id"`
	FilePath  string     `json:"file_path"`
	Caption   string     `json:"caption,omitempty"`
	IsPrimary bool       `json:"is_primary"`
	TakenAt   *time.Time `json:"taken_at"`
}

// LitterPhoto is an image of a litter, ordered by SortOrder.
type LitterPhoto struct {
	Base
	LitterID  string     `json:"litter_id"`
	FilePath  string     `json:"file_path"`
	Caption   string     `json:"caption,omitempty"`
	SortOrder int        `json:"sort_order"`
	TakenAt   *time.Time `json:"taken_at"`
}

// Document is a stored file with metadata. StorageKey points at the blob
// store once content has been attached.
type Document struct {
	Base
	Title        string       `json:"title"`
	DocumentType DocumentType `json:"document_type"`
	FileName     string       `json:"file_name,omitempty"`
	FilePath     string       `json:"file_path,omitempty"`
	MimeType     string       `json:"mime_type,omitempty"`
	Size         int64        `json:"size"`
	StorageKey   string       `json:"storage_key,omitempty"`
	Checksum     string       `json:"checksum,omitempty"`
	Notes        string       `json:"notes,omitempty"`
}

// DocumentTag is a label applied to documents.
type DocumentTag struct {
	Base
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// DocumentTagLink tags a document.
type DocumentTagLink struct {
	Base
	DocumentID string `json:"document_id"`
	TagID      string `json:"tag_id"`
}

// DogDocument links a document to a dog.
type DogDocument struct {
	Base
	DocumentID string `json:"document_id"`
	DogID      string `json:"dog_id"`
}

// LitterDocument links a document to a litter.
type LitterDocument struct {
	Base
	DocumentID string `json:"document_id"`
	LitterID   string `json:"litter_id"`
}

// ExpenseDocument links a document to an expense.
type ExpenseDocument struct {
	Base
	DocumentID string `json:"document_id"`
	ExpenseID  string `json:"expense_id"`
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// RecordID returns the identifier of the changed record.
func (c Change) RecordID() string {
	if r, ok := c.After.(Record); ok {
		return r.RecordID()
	}
	if r, ok := c.Before.(Record); ok {
		return r.RecordID()
	}
	return ""
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured in audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	if len(e.Result.Violations) > 0 {
		v := e.Result.Violations[0]
		return "transaction blocked by rules: " + v.Rule + ": " + v.Message
	}
	return "transaction blocked by rules"
}
