package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DogDetail is a dog with its direct relations. Sire and dam are not expanded
// further.
type DogDetail struct {
	Dog
	Sire           *Dog                `json:"sire"`
	Dam            *Dog                `json:"dam"`
	BirthLitter    *Litter             `json:"birth_litter"`
	Vaccinations   []VaccinationRecord `json:"vaccinations"`
	WeightEntries  []WeightEntry       `json:"weight_entries"`
	MedicalRecords []MedicalRecord     `json:"medical_records"`
	HeatCycles     []HeatCycle         `json:"heat_cycles"`
	Transports     []Transport         `json:"transports"`
	Photos         []DogPhoto          `json:"photos"`
	GeneticTests   []GeneticTest       `json:"genetic_tests"`
}

// LitterDetail is a litter with its parents, puppies and owned records.
type LitterDetail struct {
	Litter
	Sire        *Dog              `json:"sire"`
	Dam         *Dog              `json:"dam"`
	Puppies     []Dog             `json:"puppies"`
	Expenses    []Expense         `json:"expenses"`
	Photos      []LitterPhoto     `json:"photos"`
	HealthTasks []PuppyHealthTask `json:"health_tasks"`
	Waitlist    []WaitlistEntry   `json:"waitlist"`
}

// HeatCycleDetail is a heat cycle with its bitch and events in date order.
type HeatCycleDetail struct {
	HeatCycle
	Bitch  *Dog        `json:"bitch"`
	Events []HeatEvent `json:"events"`
}

// HeatEventDetail is a heat event with its cycle and optional sire.
type HeatEventDetail struct {
	HeatEvent
	Cycle *HeatCycle `json:"cycle"`
	Sire  *Dog       `json:"sire"`
}

// VaccinationDetail is a vaccination with its dog.
type VaccinationDetail struct {
	VaccinationRecord
	Dog *Dog `json:"dog"`
}

// WeightEntryDetail is a weight entry with its dog.
type WeightEntryDetail struct {
	WeightEntry
	Dog *Dog `json:"dog"`
}

// MedicalRecordDetail is a medical record with its dog.
type MedicalRecordDetail struct {
	MedicalRecord
	Dog *Dog `json:"dog"`
}

// TransportDetail is a transport with its dog and linked expense.
type TransportDetail struct {
	Transport
	Dog     *Dog     `json:"dog"`
	Expense *Expense `json:"expense"`
}

// GeneticTestDetail is a genetic test with its dog.
type GeneticTestDetail struct {
	GeneticTest
	Dog *Dog `json:"dog"`
}

// DogPhotoDetail is a dog photo with its dog.
type DogPhotoDetail struct {
	DogPhoto
	Dog *Dog `json:"dog"`
}

// LitterPhotoDetail is a litter photo with its litter.
type LitterPhotoDetail struct {
	LitterPhoto
	Litter *Litter `json:"litter"`
}

// ExpenseDetail is an expense with its dog, litter and documents.
type ExpenseDetail struct {
	Expense
	Dog       *Dog       `json:"dog"`
	Litter    *Litter    `json:"litter"`
	Documents []Document `json:"documents"`
}

// PuppyHealthTaskDetail is a health task with its litter and puppy.
type PuppyHealthTaskDetail struct {
	PuppyHealthTask
	Litter *Litter `json:"litter"`
	Puppy  *Dog    `json:"puppy"`
}

// ClientDetail is a client with everything the client owns.
type ClientDetail struct {
	Client
	Sales          []Sale             `json:"sales"`
	Interests      []ClientInterest   `json:"interests"`
	Waitlist       []WaitlistEntry    `json:"waitlist"`
	Communications []CommunicationLog `json:"communications"`
}

// SalePuppyDetail is a sale line with the sold dog.
type SalePuppyDetail struct {
	SalePuppy
	Dog *Dog `json:"dog"`
}

// SaleDetail is a sale with its client and puppies.
type SaleDetail struct {
	Sale
	Client     *Client           `json:"client"`
	Puppies    []SalePuppyDetail `json:"puppies"`
	PuppyTotal decimal.Decimal   `json:"puppy_total"`
}

// ClientInterestDetail is an interest with its client, dog and resulting sale.
type ClientInterestDetail struct {
	ClientInterest
	Client        *Client `json:"client"`
	Dog           *Dog    `json:"dog"`
	ConvertedSale *Sale   `json:"converted_sale"`
}

// WaitlistEntryDetail is a waitlist entry with its client and litter.
type WaitlistEntryDetail struct {
	WaitlistEntry
	Client *Client `json:"client"`
	Litter *Litter `json:"litter"`
}

// CommunicationLogDetail is a communication with its client.
type CommunicationLogDetail struct {
	CommunicationLog
	Client *Client `json:"client"`
}

// DocumentDetail is a document with its tags and linked records.
type DocumentDetail struct {
	Document
	Tags     []DocumentTag `json:"tags"`
	Dogs     []Dog         `json:"dogs"`
	Litters  []Litter      `json:"litters"`
	Expenses []Expense     `json:"expenses"`
}

// DashboardStats summarises the kennel for the home screen.
type DashboardStats struct {
	GeneratedAt              time.Time       `json:"generated_at"`
	TotalDogs                int             `json:"total_dogs"`
	ActiveDogs               int             `json:"active_dogs"`
	SoldDogs                 int             `json:"sold_dogs"`
	RetiredDogs              int             `json:"retired_dogs"`
	Females                  int             `json:"females"`
	Males                    int             `json:"males"`
	ActiveLitters            int             `json:"active_litters"`
	LittersDueSoon           int             `json:"litters_due_soon"`
	DogsInHeat               int             `json:"dogs_in_heat"`
	AvailablePuppies         int             `json:"available_puppies"`
	TotalClients             int             `json:"total_clients"`
	WaitlistSize             int             `json:"waitlist_size"`
	PendingSales             int             `json:"pending_sales"`
	RevenueThisYear          decimal.Decimal `json:"revenue_this_year"`
	ExpensesThisYear         decimal.Decimal `json:"expenses_this_year"`
	VaccinationsDueThisWeek  int             `json:"vaccinations_due_this_week"`
	OverdueVaccinations      int             `json:"overdue_vaccinations"`
	HealthTasksDueThisWeek   int             `json:"health_tasks_due_this_week"`
	OverdueHealthTasks       int             `json:"overdue_health_tasks"`
	FollowUpsDueThisWeek     int             `json:"follow_ups_due_this_week"`
	OverdueFollowUps         int             `json:"overdue_follow_ups"`
}

// ExpenseSummary totals expenses by category label over a period.
type ExpenseSummary struct {
	From       time.Time                  `json:"from"`
	To         time.Time                  `json:"to"`
	Total      decimal.Decimal            `json:"total"`
	ByCategory map[string]decimal.Decimal `json:"by_category"`
	Count      int                        `json:"count"`
}

// LitterFinancials compares a litter's expenses with its puppy sales.
type LitterFinancials struct {
	LitterID    string          `json:"litter_id"`
	Expenses    decimal.Decimal `json:"expenses"`
	Revenue     decimal.Decimal `json:"revenue"`
	Profit      decimal.Decimal `json:"profit"`
	PuppiesSold int             `json:"puppies_sold"`
	Puppies     int             `json:"puppies"`
}

// GrowthPoint is one weight sample on a growth chart.
type GrowthPoint struct {
	Date    time.Time  `json:"date"`
	AgeDays *int       `json:"age_days"`
	Weight  float64    `json:"weight"`
	Unit    WeightUnit `json:"unit"`
}

// GrowthSeries is the weight history of one puppy.
type GrowthSeries struct {
	Dog    Dog           `json:"dog"`
	Points []GrowthPoint `json:"points"`
}

// PedigreeNode is one dog in a pedigree tree.
type PedigreeNode struct {
	Dog  Dog           `json:"dog"`
	Sire *PedigreeNode `json:"sire,omitempty"`
	Dam  *PedigreeNode `json:"dam,omitempty"`
}
