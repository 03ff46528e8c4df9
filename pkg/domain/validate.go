package domain

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/shopspring/decimal"
)

var errNegativeAmount = errors.New("must not be negative")

// nonNegative accepts decimal.Decimal and *decimal.Decimal values.
var nonNegative = validation.By(func(value any) error {
	switch v := value.(type) {
	case decimal.Decimal:
		if v.IsNegative() {
			return errNegativeAmount
		}
	case *decimal.Decimal:
		if v != nil && v.IsNegative() {
			return errNegativeAmount
		}
	}
	return nil
})

var heatEventTypes = []any{
	HeatEventBleeding, HeatEventDischarge, HeatEventStanding, HeatEventEndReceptive,
	HeatEventProgesteroneTest, HeatEventLHSurge, HeatEventBreedingNatural, HeatEventBreedingAI,
	HeatEventBreedingTCI, HeatEventBreedingSurgical, HeatEventOvulation, HeatEventCycleEnd,
	HeatEventOther,
}

func expenseCategoryValues() []any {
	out := make([]any, len(ExpenseCategories))
	for i, c := range ExpenseCategories {
		out[i] = c
	}
	return out
}

// Validate checks field-level constraints of the dog.
func (d Dog) Validate() error {
	return fromValidation(EntityDog, validation.ValidateStruct(&d,
		validation.Field(&d.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&d.Sex, validation.Required, validation.In(SexMale, SexFemale)),
		validation.Field(&d.Status, validation.Required,
			validation.In(DogStatusActive, DogStatusSold, DogStatusRetired, DogStatusDeceased)),
		validation.Field(&d.EvaluationScore, validation.Min(0), validation.Max(100)),
	))
}

// Validate checks field-level constraints of the litter.
func (l Litter) Validate() error {
	return fromValidation(EntityLitter, validation.ValidateStruct(&l,
		validation.Field(&l.Name, validation.Length(0, 200)),
		validation.Field(&l.Status, validation.Required, validation.In(
			LitterStatusPlanned, LitterStatusBred, LitterStatusUltrasoundConfirmed,
			LitterStatusXrayConfirmed, LitterStatusWhelped, LitterStatusWeaning,
			LitterStatusReadyToGo, LitterStatusCompleted)),
		validation.Field(&l.ConfirmationMethod, validation.In(
			ConfirmationUltrasound, ConfirmationXray, ConfirmationRelaxin, ConfirmationPalpation)),
		validation.Field(&l.ExpectedCount, validation.Min(0)),
		validation.Field(&l.TotalBorn, validation.Min(0)),
		validation.Field(&l.MalesBorn, validation.Min(0)),
		validation.Field(&l.FemalesBorn, validation.Min(0)),
	))
}

// Validate checks field-level constraints of the heat cycle.
func (c HeatCycle) Validate() error {
	return fromValidation(EntityHeatCycle, validation.ValidateStruct(&c,
		validation.Field(&c.BitchID, validation.Required),
		validation.Field(&c.StartDate, validation.Required),
	))
}

// Validate checks field-level constraints of the heat event.
func (e HeatEvent) Validate() error {
	return fromValidation(EntityHeatEvent, validation.ValidateStruct(&e,
		validation.Field(&e.CycleID, validation.Required),
		validation.Field(&e.Date, validation.Required),
		validation.Field(&e.Type, validation.Required, validation.In(heatEventTypes...)),
		validation.Field(&e.ProgesteroneLevel, validation.Min(0.0)),
	))
}

// Validate checks field-level constraints of the vaccination record.
func (v VaccinationRecord) Validate() error {
	return fromValidation(EntityVaccination, validation.ValidateStruct(&v,
		validation.Field(&v.DogID, validation.Required),
		validation.Field(&v.VaccineType, validation.Required),
		validation.Field(&v.DateGiven, validation.Required),
	))
}

// Validate checks field-level constraints of the weight entry.
func (w WeightEntry) Validate() error {
	return fromValidation(EntityWeightEntry, validation.ValidateStruct(&w,
		validation.Field(&w.DogID, validation.Required),
		validation.Field(&w.Date, validation.Required),
		validation.Field(&w.Weight, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&w.Unit, validation.Required, validation.In(WeightUnitPound, WeightUnitKilogram)),
	))
}

// Validate checks field-level constraints of the medical record.
func (m MedicalRecord) Validate() error {
	return fromValidation(EntityMedicalRecord, validation.ValidateStruct(&m,
		validation.Field(&m.DogID, validation.Required),
		validation.Field(&m.Date, validation.Required),
		validation.Field(&m.RecordType, validation.Required, validation.In(
			MedicalExam, MedicalSurgery, MedicalIllness, MedicalInjury, MedicalTest,
			MedicalMedication, MedicalOther)),
		validation.Field(&m.Description, validation.Required),
		validation.Field(&m.Cost, nonNegative),
	))
}

// Validate checks field-level constraints of the transport.
func (t Transport) Validate() error {
	return fromValidation(EntityTransport, validation.ValidateStruct(&t,
		validation.Field(&t.DogID, validation.Required),
		validation.Field(&t.Date, validation.Required),
		validation.Field(&t.Mode, validation.Required,
			validation.In(TransportFlight, TransportGround, TransportPickup, TransportOther)),
		validation.Field(&t.Cost, nonNegative),
	))
}

// Validate checks field-level constraints of the expense.
func (e Expense) Validate() error {
	return fromValidation(EntityExpense, validation.ValidateStruct(&e,
		validation.Field(&e.Date, validation.Required),
		validation.Field(&e.Amount, nonNegative),
		validation.Field(&e.Category, validation.Required, validation.In(expenseCategoryValues()...)),
		validation.Field(&e.CustomCategory,
			validation.When(e.Category == ExpenseCustom, validation.Required).Else(validation.Empty)),
	))
}

// Validate checks field-level constraints of the client.
func (c Client) Validate() error {
	return fromValidation(EntityClient, validation.ValidateStruct(&c,
		validation.Field(&c.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&c.Email, is.EmailFormat),
	))
}

// Validate checks field-level constraints of the sale.
func (s Sale) Validate() error {
	return fromValidation(EntitySale, validation.ValidateStruct(&s,
		validation.Field(&s.SaleDate, validation.Required),
		validation.Field(&s.Price, nonNegative),
		validation.Field(&s.DepositAmount, nonNegative),
		validation.Field(&s.PaymentStatus, validation.Required,
			validation.In(PaymentPending, PaymentDepositPaid, PaymentPaid, PaymentRefunded)),
		validation.Field(&s.Status, validation.Required,
			validation.In(SaleStatusPending, SaleStatusCompleted, SaleStatusCancelled)),
	))
}

// Validate checks field-level constraints of the sale puppy link.
func (p SalePuppy) Validate() error {
	return fromValidation(EntitySalePuppy, validation.ValidateStruct(&p,
		validation.Field(&p.SaleID, validation.Required),
		validation.Field(&p.DogID, validation.Required),
		validation.Field(&p.Price, nonNegative),
	))
}

// Validate checks field-level constraints of the client interest.
func (i ClientInterest) Validate() error {
	return fromValidation(EntityClientInterest, validation.ValidateStruct(&i,
		validation.Field(&i.ClientID, validation.Required),
		validation.Field(&i.DogID, validation.Required),
		validation.Field(&i.Status, validation.Required, validation.In(
			InterestInterested, InterestContacted, InterestScheduledVisit, InterestConverted, InterestLost)),
		validation.Field(&i.InterestDate, validation.Required),
	))
}

// Validate checks field-level constraints of the waitlist entry.
func (w WaitlistEntry) Validate() error {
	return fromValidation(EntityWaitlistEntry, validation.ValidateStruct(&w,
		validation.Field(&w.ClientID, validation.Required),
		validation.Field(&w.Position, validation.Min(0)),
		validation.Field(&w.PreferredSex, validation.In(SexMale, SexFemale)),
		validation.Field(&w.DepositAmount, nonNegative),
		validation.Field(&w.Status, validation.Required, validation.In(
			WaitlistWaiting, WaitlistMatched, WaitlistFulfilled, WaitlistCancelled)),
	))
}

// Validate checks field-level constraints of the communication log.
func (c CommunicationLog) Validate() error {
	return fromValidation(EntityCommunicationLog, validation.ValidateStruct(&c,
		validation.Field(&c.ClientID, validation.Required),
		validation.Field(&c.Date, validation.Required),
		validation.Field(&c.Channel, validation.Required, validation.In(
			ChannelPhone, ChannelEmail, ChannelText, ChannelInPerson, ChannelSocial, ChannelOther)),
		validation.Field(&c.Direction, validation.Required, validation.In(DirectionInbound, DirectionOutbound)),
		validation.Field(&c.FollowUpDate, validation.When(c.FollowUpRequired, validation.Required)),
	))
}

// Validate checks field-level constraints of the genetic test.
func (g GeneticTest) Validate() error {
	return fromValidation(EntityGeneticTest, validation.ValidateStruct(&g,
		validation.Field(&g.DogID, validation.Required),
		validation.Field(&g.TestName, validation.Required, validation.Length(1, 120)),
		validation.Field(&g.Result, validation.Required,
			validation.In(GeneticClear, GeneticCarrier, GeneticAffected, GeneticPending)),
	))
}

// Validate checks field-level constraints of the puppy health task.
func (t PuppyHealthTask) Validate() error {
	return fromValidation(EntityPuppyHealthTask, validation.ValidateStruct(&t,
		validation.Field(&t.LitterID, validation.Required),
		validation.Field(&t.TaskType, validation.Required),
		validation.Field(&t.TaskName, validation.Required),
		validation.Field(&t.DueDate, validation.Required),
	))
}

// Validate checks one template item.
func (i HealthScheduleItem) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.TaskType, validation.Required),
		validation.Field(&i.TaskName, validation.Required),
		validation.Field(&i.DaysFromBirth, validation.Min(0)),
	)
}

// Validate checks field-level constraints of the template and its items.
func (t HealthScheduleTemplate) Validate() error {
	return fromValidation(EntityHealthTemplate, validation.ValidateStruct(&t,
		validation.Field(&t.Name, validation.Required),
		validation.Field(&t.Items, validation.Required),
	))
}

// Validate checks field-level constraints of the dog photo.
func (p DogPhoto) Validate() error {
	return fromValidation(EntityDogPhoto, validation.ValidateStruct(&p,
		validation.Field(&p.DogID, validation.Required),
		validation.Field(&p.FilePath, validation.Required),
	))
}

// Validate checks field-level constraints of the litter photo.
func (p LitterPhoto) Validate() error {
	return fromValidation(EntityLitterPhoto, validation.ValidateStruct(&p,
		validation.Field(&p.LitterID, validation.Required),
		validation.Field(&p.FilePath, validation.Required),
		validation.Field(&p.SortOrder, validation.Min(0)),
	))
}

// Validate checks field-level constraints of the document.
func (d Document) Validate() error {
	return fromValidation(EntityDocument, validation.ValidateStruct(&d,
		validation.Field(&d.Title, validation.Required, validation.Length(1, 300)),
		validation.Field(&d.DocumentType, validation.Required, validation.In(
			DocumentContract, DocumentHealthCertificate, DocumentRegistration, DocumentPedigree,
			DocumentInvoice, DocumentReceipt, DocumentPhoto, DocumentOther)),
		validation.Field(&d.Size, validation.Min(int64(0))),
	))
}

// Validate checks field-level constraints of the tag.
func (t DocumentTag) Validate() error {
	return fromValidation(EntityDocumentTag, validation.ValidateStruct(&t,
		validation.Field(&t.Name, validation.Required, validation.Length(1, 64)),
	))
}
