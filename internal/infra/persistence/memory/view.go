package memory

import "kennelcore/pkg/domain"

// transactionView exposes read-only collections over a memory state.
type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) domain.TransactionView {
	return transactionView{state: state}
}

func (v transactionView) Dogs() domain.Collection[domain.Dog]       { return v.state.dogs }
func (v transactionView) Litters() domain.Collection[domain.Litter] { return v.state.litters }
func (v transactionView) HeatCycles() domain.Collection[domain.HeatCycle] {
	return v.state.heatCycles
}
func (v transactionView) HeatEvents() domain.Collection[domain.HeatEvent] {
	return v.state.heatEvents
}
func (v transactionView) Vaccinations() domain.Collection[domain.VaccinationRecord] {
	return v.state.vaccinations
}
func (v transactionView) WeightEntries() domain.Collection[domain.WeightEntry] {
	return v.state.weights
}
func (v transactionView) MedicalRecords() domain.Collection[domain.MedicalRecord] {
	return v.state.medical
}
func (v transactionView) Transports() domain.Collection[domain.Transport] {
	return v.state.transports
}
func (v transactionView) Expenses() domain.Collection[domain.Expense] { return v.state.expenses }
func (v transactionView) Clients() domain.Collection[domain.Client]   { return v.state.clients }
func (v transactionView) Sales() domain.Collection[domain.Sale]       { return v.state.sales }
func (v transactionView) SalePuppies() domain.Collection[domain.SalePuppy] {
	return v.state.salePuppies
}
func (v transactionView) ClientInterests() domain.Collection[domain.ClientInterest] {
	return v.state.interests
}
func (v transactionView) WaitlistEntries() domain.Collection[domain.WaitlistEntry] {
	return v.state.waitlist
}
func (v transactionView) CommunicationLogs() domain.Collection[domain.CommunicationLog] {
	return v.state.communications
}
func (v transactionView) GeneticTests() domain.Collection[domain.GeneticTest] {
	return v.state.geneticTests
}
func (v transactionView) PuppyHealthTasks() domain.Collection[domain.PuppyHealthTask] {
	return v.state.healthTasks
}
func (v transactionView) HealthTemplates() domain.Collection[domain.HealthScheduleTemplate] {
	return v.state.healthTemplates
}
func (v transactionView) DogPhotos() domain.Collection[domain.DogPhoto] {
	return v.state.dogPhotos
}
func (v transactionView) LitterPhotos() domain.Collection[domain.LitterPhoto] {
	return v.state.litterPhotos
}
func (v transactionView) Documents() domain.Collection[domain.Document] {
	return v.state.documents
}
func (v transactionView) DocumentTags() domain.Collection[domain.DocumentTag] {
	return v.state.documentTags
}
func (v transactionView) DocumentTagLinks() domain.Collection[domain.DocumentTagLink] {
	return v.state.tagLinks
}
func (v transactionView) DogDocuments() domain.Collection[domain.DogDocument] {
	return v.state.dogDocuments
}
func (v transactionView) LitterDocuments() domain.Collection[domain.LitterDocument] {
	return v.state.litterDocuments
}
func (v transactionView) ExpenseDocuments() domain.Collection[domain.ExpenseDocument] {
	return v.state.expenseDocuments
}
