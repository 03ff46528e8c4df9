package domain

import (
	"context"
	"time"
)

// ForeignKey names a secondary index over a collection. Rows whose key is nil
// are indexed under the empty string, so ListBy(key, "") returns them.
type ForeignKey string

// Secondary indexes maintained by persistence implementations.
const (
	BySire          ForeignKey = "sire_id"
	ByDam           ForeignKey = "dam_id"
	ByLitter        ForeignKey = "litter_id"
	ByBitch         ForeignKey = "bitch_id"
	ByCycle         ForeignKey = "cycle_id"
	ByDog           ForeignKey = "dog_id"
	ByExpense       ForeignKey = "expense_id"
	ByClient        ForeignKey = "client_id"
	BySale          ForeignKey = "sale_id"
	ByConvertedSale ForeignKey = "converted_to_sale_id"
	ByPuppy         ForeignKey = "puppy_id"
	ByDocument      ForeignKey = "document_id"
	ByTag           ForeignKey = "tag_id"
)

// Collection is read access to one entity type. Returned values are copies.
type Collection[T any] interface {
	Find(id string) (T, bool)
	// List returns every row ordered by id.
	List() []T
	// ListBy returns rows whose foreign key equals id, ordered by id.
	ListBy(key ForeignKey, id string) []T
	Len() int
}

// TransactionView provides read-only access to the dataset.
type TransactionView interface {
	Dogs() Collection[Dog]
	Litters() Collection[Litter]
	HeatCycles() Collection[HeatCycle]
	HeatEvents() Collection[HeatEvent]
	Vaccinations() Collection[VaccinationRecord]
	WeightEntries() Collection[WeightEntry]
	MedicalRecords() Collection[MedicalRecord]
	Transports() Collection[Transport]
	Expenses() Collection[Expense]
	Clients() Collection[Client]
	Sales() Collection[Sale]
	SalePuppies() Collection[SalePuppy]
	ClientInterests() Collection[ClientInterest]
	WaitlistEntries() Collection[WaitlistEntry]
	CommunicationLogs() Collection[CommunicationLog]
	GeneticTests() Collection[GeneticTest]
	PuppyHealthTasks() Collection[PuppyHealthTask]
	HealthTemplates() Collection[HealthScheduleTemplate]
	DogPhotos() Collection[DogPhoto]
	LitterPhotos() Collection[LitterPhoto]
	Documents() Collection[Document]
	DocumentTags() Collection[DocumentTag]
	DocumentTagLinks() Collection[DocumentTagLink]
	DogDocuments() Collection[DogDocument]
	LitterDocuments() Collection[LitterDocument]
	ExpenseDocuments() Collection[ExpenseDocument]
}

// Transaction exposes the mutations a persistence implementation must support
// within an atomic scope. Deletes run the entity's cascade and report
// ErrNotFound for unknown ids.
type Transaction interface {
	Snapshot() TransactionView
	Now() time.Time

	CreateDog(Dog) (Dog, error)
	UpdateDog(id string, mutator func(*Dog) error) (Dog, error)
	DeleteDog(id string) error
	CreateLitter(Litter) (Litter, error)
	UpdateLitter(id string, mutator func(*Litter) error) (Litter, error)
	DeleteLitter(id string) error

	CreateHeatCycle(HeatCycle) (HeatCycle, error)
	UpdateHeatCycle(id string, mutator func(*HeatCycle) error) (HeatCycle, error)
	DeleteHeatCycle(id string) error
	CreateHeatEvent(HeatEvent) (HeatEvent, error)
	UpdateHeatEvent(id string, mutator func(*HeatEvent) error) (HeatEvent, error)
	DeleteHeatEvent(id string) error

	CreateVaccination(VaccinationRecord) (VaccinationRecord, error)
	UpdateVaccination(id string, mutator func(*VaccinationRecord) error) (VaccinationRecord, error)
	DeleteVaccination(id string) error
	CreateWeightEntry(WeightEntry) (WeightEntry, error)
	UpdateWeightEntry(id string, mutator func(*WeightEntry) error) (WeightEntry, error)
	DeleteWeightEntry(id string) error
	CreateMedicalRecord(MedicalRecord) (MedicalRecord, error)
	UpdateMedicalRecord(id string, mutator func(*MedicalRecord) error) (MedicalRecord, error)
	DeleteMedicalRecord(id string) error
	CreateTransport(Transport) (Transport, error)
	UpdateTransport(id string, mutator func(*Transport) error) (Transport, error)
	DeleteTransport(id string) error
	CreateGeneticTest(GeneticTest) (GeneticTest, error)
	UpdateGeneticTest(id string, mutator func(*GeneticTest) error) (GeneticTest, error)
	DeleteGeneticTest(id string) error
	CreateDogPhoto(DogPhoto) (DogPhoto, error)
	UpdateDogPhoto(id string, mutator func(*DogPhoto) error) (DogPhoto, error)
	DeleteDogPhoto(id string) error

	CreateExpense(Expense) (Expense, error)
	UpdateExpense(id string, mutator func(*Expense) error) (Expense, error)
	DeleteExpense(id string) error
	CreateLitterPhoto(LitterPhoto) (LitterPhoto, error)
	UpdateLitterPhoto(id string, mutator func(*LitterPhoto) error) (LitterPhoto, error)
	DeleteLitterPhoto(id string) error
	ReorderLitterPhotos(litterID string, orderedIDs []string) ([]LitterPhoto, error)
	CreatePuppyHealthTask(PuppyHealthTask) (PuppyHealthTask, error)
	UpdatePuppyHealthTask(id string, mutator func(*PuppyHealthTask) error) (PuppyHealthTask, error)
	DeletePuppyHealthTask(id string) error
	CreateHealthTemplate(HealthScheduleTemplate) (HealthScheduleTemplate, error)
	UpdateHealthTemplate(id string, mutator func(*HealthScheduleTemplate) error) (HealthScheduleTemplate, error)
	DeleteHealthTemplate(id string) error

	CreateClient(Client) (Client, error)
	UpdateClient(id string, mutator func(*Client) error) (Client, error)
	DeleteClient(id string) error
	CreateSale(Sale) (Sale, error)
	UpdateSale(id string, mutator func(*Sale) error) (Sale, error)
	DeleteSale(id string) error
	AddSalePuppy(SalePuppy) (SalePuppy, error)
	UpdateSalePuppy(id string, mutator func(*SalePuppy) error) (SalePuppy, error)
	RemoveSalePuppy(id string) error
	CreateClientInterest(ClientInterest) (ClientInterest, error)
	UpdateClientInterest(id string, mutator func(*ClientInterest) error) (ClientInterest, error)
	DeleteClientInterest(id string) error
	ConvertInterest(interestID, saleID string) (ClientInterest, error)
	CreateWaitlistEntry(WaitlistEntry) (WaitlistEntry, error)
	UpdateWaitlistEntry(id string, mutator func(*WaitlistEntry) error) (WaitlistEntry, error)
	DeleteWaitlistEntry(id string) error
	ReorderWaitlist(litterID *string, orderedIDs []string) ([]WaitlistEntry, error)
	CreateCommunicationLog(CommunicationLog) (CommunicationLog, error)
	UpdateCommunicationLog(id string, mutator func(*CommunicationLog) error) (CommunicationLog, error)
	DeleteCommunicationLog(id string) error

	CreateDocument(Document) (Document, error)
	UpdateDocument(id string, mutator func(*Document) error) (Document, error)
	DeleteDocument(id string) error
	CreateDocumentTag(DocumentTag) (DocumentTag, error)
	UpdateDocumentTag(id string, mutator func(*DocumentTag) error) (DocumentTag, error)
	DeleteDocumentTag(id string) error
	TagDocument(documentID, tagID string) (DocumentTagLink, error)
	UntagDocument(documentID, tagID string) error
	LinkDocument(documentID string, entity EntityType, entityID string) (string, error)
	UnlinkDocument(documentID string, entity EntityType, entityID string) error
}

// PersistentStore is the abstraction over durable backends used by higher
// layers. Implementations serialize every call against the whole dataset.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	ExportState(ctx context.Context) (Snapshot, error)
	ImportState(ctx context.Context, snapshot Snapshot) error
	ClearState(ctx context.Context) error
	Close() error
}
