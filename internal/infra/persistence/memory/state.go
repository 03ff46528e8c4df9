package memory

import (
	"kennelcore/pkg/domain"
)

// memoryState is the warm dataset: one indexed table per entity type.
type memoryState struct {
	dogs             *table[domain.Dog]
	litters          *table[domain.Litter]
	heatCycles       *table[domain.HeatCycle]
	heatEvents       *table[domain.HeatEvent]
	vaccinations     *table[domain.VaccinationRecord]
	weights          *table[domain.WeightEntry]
	medical          *table[domain.MedicalRecord]
	transports       *table[domain.Transport]
	expenses         *table[domain.Expense]
	clients          *table[domain.Client]
	sales            *table[domain.Sale]
	salePuppies      *table[domain.SalePuppy]
	interests        *table[domain.ClientInterest]
	waitlist         *table[domain.WaitlistEntry]
	communications   *table[domain.CommunicationLog]
	geneticTests     *table[domain.GeneticTest]
	healthTasks      *table[domain.PuppyHealthTask]
	healthTemplates  *table[domain.HealthScheduleTemplate]
	dogPhotos        *table[domain.DogPhoto]
	litterPhotos     *table[domain.LitterPhoto]
	documents        *table[domain.Document]
	documentTags     *table[domain.DocumentTag]
	tagLinks         *table[domain.DocumentTagLink]
	dogDocuments     *table[domain.DogDocument]
	litterDocuments  *table[domain.LitterDocument]
	expenseDocuments *table[domain.ExpenseDocument]
}

func newMemoryState() *memoryState {
	return &memoryState{
		dogs: newTable(domain.EntityDog, cloneDog, map[domain.ForeignKey]keyFunc[domain.Dog]{
			domain.BySire:   func(d domain.Dog) string { return optKey(d.SireID) },
			domain.ByDam:    func(d domain.Dog) string { return optKey(d.DamID) },
			domain.ByLitter: func(d domain.Dog) string { return optKey(d.LitterID) },
		}),
		litters: newTable(domain.EntityLitter, cloneLitter, map[domain.ForeignKey]keyFunc[domain.Litter]{
			domain.BySire: func(l domain.Litter) string { return optKey(l.SireID) },
			domain.ByDam:  func(l domain.Litter) string { return optKey(l.DamID) },
		}),
		heatCycles: newTable(domain.EntityHeatCycle, cloneHeatCycle, map[domain.ForeignKey]keyFunc[domain.HeatCycle]{
			domain.ByBitch: func(c domain.HeatCycle) string { return c.BitchID },
		}),
		heatEvents: newTable(domain.EntityHeatEvent, cloneHeatEvent, map[domain.ForeignKey]keyFunc[domain.HeatEvent]{
			domain.ByCycle: func(e domain.HeatEvent) string { return e.CycleID },
			domain.BySire:  func(e domain.HeatEvent) string { return optKey(e.SireID) },
		}),
		vaccinations: newTable(domain.EntityVaccination, cloneVaccination, map[domain.ForeignKey]keyFunc[domain.VaccinationRecord]{
			domain.ByDog: func(v domain.VaccinationRecord) string { return v.DogID },
		}),
		weights: newTable(domain.EntityWeightEntry, nil, map[domain.ForeignKey]keyFunc[domain.WeightEntry]{
			domain.ByDog: func(w domain.WeightEntry) string { return w.DogID },
		}),
		medical: newTable(domain.EntityMedicalRecord, cloneMedicalRecord, map[domain.ForeignKey]keyFunc[domain.MedicalRecord]{
			domain.ByDog: func(m domain.MedicalRecord) string { return m.DogID },
		}),
		transports: newTable(domain.EntityTransport, cloneTransport, map[domain.ForeignKey]keyFunc[domain.Transport]{
			domain.ByDog:     func(t domain.Transport) string { return t.DogID },
			domain.ByExpense: func(t domain.Transport) string { return optKey(t.ExpenseID) },
		}),
		expenses: newTable(domain.EntityExpense, cloneExpense, map[domain.ForeignKey]keyFunc[domain.Expense]{
			domain.ByDog:    func(e domain.Expense) string { return optKey(e.DogID) },
			domain.ByLitter: func(e domain.Expense) string { return optKey(e.LitterID) },
		}),
		clients: newTable[domain.Client](domain.EntityClient, nil, nil),
		sales: newTable(domain.EntitySale, cloneSale, map[domain.ForeignKey]keyFunc[domain.Sale]{
			domain.ByClient: func(s domain.Sale) string { return optKey(s.ClientID) },
		}),
		salePuppies: newTable(domain.EntitySalePuppy, nil, map[domain.ForeignKey]keyFunc[domain.SalePuppy]{
			domain.BySale: func(p domain.SalePuppy) string { return p.SaleID },
			domain.ByDog:  func(p domain.SalePuppy) string { return p.DogID },
		}),
		interests: newTable(domain.EntityClientInterest, cloneInterest, map[domain.ForeignKey]keyFunc[domain.ClientInterest]{
			domain.ByClient:        func(i domain.ClientInterest) string { return i.ClientID },
			domain.ByDog:           func(i domain.ClientInterest) string { return i.DogID },
			domain.ByConvertedSale: func(i domain.ClientInterest) string { return optKey(i.ConvertedToSaleID) },
		}),
		waitlist: newTable(domain.EntityWaitlistEntry, cloneWaitlistEntry, map[domain.ForeignKey]keyFunc[domain.WaitlistEntry]{
			domain.ByClient: func(w domain.WaitlistEntry) string { return w.ClientID },
			domain.ByLitter: func(w domain.WaitlistEntry) string { return optKey(w.LitterID) },
		}),
		communications: newTable(domain.EntityCommunicationLog, cloneCommunicationLog, map[domain.ForeignKey]keyFunc[domain.CommunicationLog]{
			domain.ByClient: func(c domain.CommunicationLog) string { return c.ClientID },
		}),
		geneticTests: newTable(domain.EntityGeneticTest, cloneGeneticTest, map[domain.ForeignKey]keyFunc[domain.GeneticTest]{
			domain.ByDog: func(g domain.GeneticTest) string { return g.DogID },
		}),
		healthTasks: newTable(domain.EntityPuppyHealthTask, clonePuppyHealthTask, map[domain.ForeignKey]keyFunc[domain.PuppyHealthTask]{
			domain.ByLitter: func(t domain.PuppyHealthTask) string { return t.LitterID },
			domain.ByPuppy:  func(t domain.PuppyHealthTask) string { return optKey(t.PuppyID) },
		}),
		healthTemplates: newTable[domain.HealthScheduleTemplate](domain.EntityHealthTemplate, cloneHealthTemplate, nil),
		dogPhotos: newTable(domain.EntityDogPhoto, cloneDogPhoto, map[domain.ForeignKey]keyFunc[domain.DogPhoto]{
			domain.ByDog: func(p domain.DogPhoto) string { return p.DogID },
		}),
		litterPhotos: newTable(domain.EntityLitterPhoto, cloneLitterPhoto, map[domain.ForeignKey]keyFunc[domain.LitterPhoto]{
			domain.ByLitter: func(p domain.LitterPhoto) string { return p.LitterID },
		}),
		documents:    newTable[domain.Document](domain.EntityDocument, nil, nil),
		documentTags: newTable[domain.DocumentTag](domain.EntityDocumentTag, nil, nil),
		tagLinks: newTable(domain.EntityDocumentTagLink, nil, map[domain.ForeignKey]keyFunc[domain.DocumentTagLink]{
			domain.ByDocument: func(l domain.DocumentTagLink) string { return l.DocumentID },
			domain.ByTag:      func(l domain.DocumentTagLink) string { return l.TagID },
		}),
		dogDocuments: newTable(domain.EntityDogDocument, nil, map[domain.ForeignKey]keyFunc[domain.DogDocument]{
			domain.ByDocument: func(l domain.DogDocument) string { return l.DocumentID },
			domain.ByDog:      func(l domain.DogDocument) string { return l.DogID },
		}),
		litterDocuments: newTable(domain.EntityLitterDocument, nil, map[domain.ForeignKey]keyFunc[domain.LitterDocument]{
			domain.ByDocument: func(l domain.LitterDocument) string { return l.DocumentID },
			domain.ByLitter:   func(l domain.LitterDocument) string { return l.LitterID },
		}),
		expenseDocuments: newTable(domain.EntityExpenseDocument, nil, map[domain.ForeignKey]keyFunc[domain.ExpenseDocument]{
			domain.ByDocument: func(l domain.ExpenseDocument) string { return l.DocumentID },
			domain.ByExpense:  func(l domain.ExpenseDocument) string { return l.ExpenseID },
		}),
	}
}

func memoryStateFromSnapshot(s domain.Snapshot) *memoryState {
	s.EnsureMaps()
	st := newMemoryState()
	st.dogs.load(s.Dogs)
	st.litters.load(s.Litters)
	st.heatCycles.load(s.HeatCycles)
	st.heatEvents.load(s.HeatEvents)
	st.vaccinations.load(s.Vaccinations)
	st.weights.load(s.WeightEntries)
	st.medical.load(s.MedicalRecords)
	st.transports.load(s.Transports)
	st.expenses.load(s.Expenses)
	st.clients.load(s.Clients)
	st.sales.load(s.Sales)
	st.salePuppies.load(s.SalePuppies)
	st.interests.load(s.ClientInterests)
	st.waitlist.load(s.WaitlistEntries)
	st.communications.load(s.CommunicationLogs)
	st.geneticTests.load(s.GeneticTests)
	st.healthTasks.load(s.PuppyHealthTasks)
	st.healthTemplates.load(s.HealthTemplates)
	st.dogPhotos.load(s.DogPhotos)
	st.litterPhotos.load(s.LitterPhotos)
	st.documents.load(s.Documents)
	st.documentTags.load(s.DocumentTags)
	st.tagLinks.load(s.DocumentTagLinks)
	st.dogDocuments.load(s.DogDocuments)
	st.litterDocuments.load(s.LitterDocuments)
	st.expenseDocuments.load(s.ExpenseDocuments)
	return st
}

func snapshotFromMemoryState(st *memoryState) domain.Snapshot {
	return domain.Snapshot{
		SchemaVersion:     domain.CurrentSchemaVersion,
		Dogs:              st.dogs.export(),
		Litters:           st.litters.export(),
		HeatCycles:        st.heatCycles.export(),
		HeatEvents:        st.heatEvents.export(),
		Vaccinations:      st.vaccinations.export(),
		WeightEntries:     st.weights.export(),
		MedicalRecords:    st.medical.export(),
		Transports:        st.transports.export(),
		Expenses:          st.expenses.export(),
		Clients:           st.clients.export(),
		Sales:             st.sales.export(),
		SalePuppies:       st.salePuppies.export(),
		ClientInterests:   st.interests.export(),
		WaitlistEntries:   st.waitlist.export(),
		CommunicationLogs: st.communications.export(),
		GeneticTests:      st.geneticTests.export(),
		PuppyHealthTasks:  st.healthTasks.export(),
		HealthTemplates:   st.healthTemplates.export(),
		DogPhotos:         st.dogPhotos.export(),
		LitterPhotos:      st.litterPhotos.export(),
		Documents:         st.documents.export(),
		DocumentTags:      st.documentTags.export(),
		DocumentTagLinks:  st.tagLinks.export(),
		DogDocuments:      st.dogDocuments.export(),
		LitterDocuments:   st.litterDocuments.export(),
		ExpenseDocuments:  st.expenseDocuments.export(),
	}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneDog(d domain.Dog) domain.Dog {
	d.DateOfBirth = clonePtr(d.DateOfBirth)
	d.SireID = clonePtr(d.SireID)
	d.DamID = clonePtr(d.DamID)
	d.LitterID = clonePtr(d.LitterID)
	d.EvaluationScore = clonePtr(d.EvaluationScore)
	return d
}

func cloneLitter(l domain.Litter) domain.Litter {
	l.SireID = clonePtr(l.SireID)
	l.DamID = clonePtr(l.DamID)
	l.BreedingDate = clonePtr(l.BreedingDate)
	l.DueDate = clonePtr(l.DueDate)
	l.WhelpDate = clonePtr(l.WhelpDate)
	l.ConfirmationMethod = clonePtr(l.ConfirmationMethod)
	l.ConfirmationDate = clonePtr(l.ConfirmationDate)
	l.ExpectedCount = clonePtr(l.ExpectedCount)
	l.TotalBorn = clonePtr(l.TotalBorn)
	l.MalesBorn = clonePtr(l.MalesBorn)
	l.FemalesBorn = clonePtr(l.FemalesBorn)
	return l
}

func cloneHeatCycle(c domain.HeatCycle) domain.HeatCycle {
	c.EndDate = clonePtr(c.EndDate)
	c.CycleLength = clonePtr(c.CycleLength)
	c.NextHeatEstimate = clonePtr(c.NextHeatEstimate)
	c.StandingHeatStart = clonePtr(c.StandingHeatStart)
	c.StandingHeatEnd = clonePtr(c.StandingHeatEnd)
	c.OvulationDate = clonePtr(c.OvulationDate)
	c.OptimalBreedingStart = clonePtr(c.OptimalBreedingStart)
	c.OptimalBreedingEnd = clonePtr(c.OptimalBreedingEnd)
	c.ExpectedDueDate = clonePtr(c.ExpectedDueDate)
	return c
}

func cloneHeatEvent(e domain.HeatEvent) domain.HeatEvent {
	e.ProgesteroneLevel = clonePtr(e.ProgesteroneLevel)
	e.SireID = clonePtr(e.SireID)
	return e
}

func cloneVaccination(v domain.VaccinationRecord) domain.VaccinationRecord {
	v.NextDueDate = clonePtr(v.NextDueDate)
	return v
}

func cloneMedicalRecord(m domain.MedicalRecord) domain.MedicalRecord {
	m.Cost = clonePtr(m.Cost)
	return m
}

func cloneTransport(t domain.Transport) domain.Transport {
	t.ExpenseID = clonePtr(t.ExpenseID)
	return t
}

func cloneExpense(e domain.Expense) domain.Expense {
	e.DogID = clonePtr(e.DogID)
	e.LitterID = clonePtr(e.LitterID)
	return e
}

func cloneSale(s domain.Sale) domain.Sale {
	s.ClientID = clonePtr(s.ClientID)
	s.DepositAmount = clonePtr(s.DepositAmount)
	s.DepositDate = clonePtr(s.DepositDate)
	s.PickupDate = clonePtr(s.PickupDate)
	s.LegacyDogID = clonePtr(s.LegacyDogID)
	return s
}

func cloneInterest(i domain.ClientInterest) domain.ClientInterest {
	i.ConvertedToSaleID = clonePtr(i.ConvertedToSaleID)
	return i
}

func cloneWaitlistEntry(w domain.WaitlistEntry) domain.WaitlistEntry {
	w.LitterID = clonePtr(w.LitterID)
	w.PreferredSex = clonePtr(w.PreferredSex)
	w.DepositAmount = clonePtr(w.DepositAmount)
	return w
}

func cloneCommunicationLog(c domain.CommunicationLog) domain.CommunicationLog {
	c.FollowUpDate = clonePtr(c.FollowUpDate)
	return c
}

func cloneGeneticTest(g domain.GeneticTest) domain.GeneticTest {
	g.TestDate = clonePtr(g.TestDate)
	return g
}

func clonePuppyHealthTask(t domain.PuppyHealthTask) domain.PuppyHealthTask {
	t.PuppyID = clonePtr(t.PuppyID)
	t.TemplateID = clonePtr(t.TemplateID)
	t.CompletedDate = clonePtr(t.CompletedDate)
	return t
}

func cloneHealthTemplate(t domain.HealthScheduleTemplate) domain.HealthScheduleTemplate {
	if t.Items != nil {
		t.Items = append([]domain.HealthScheduleItem(nil), t.Items...)
	}
	return t
}

func cloneDogPhoto(p domain.DogPhoto) domain.DogPhoto {
	p.TakenAt = clonePtr(p.TakenAt)
	return p
}

func cloneLitterPhoto(p domain.LitterPhoto) domain.LitterPhoto {
	p.TakenAt = clonePtr(p.TakenAt)
	return p
}
