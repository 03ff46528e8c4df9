package memory

import (
	"strings"

	"kennelcore/pkg/domain"
)

func (tx *transaction) CreateDocument(d domain.Document) (domain.Document, error) {
	return createRow(tx, tx.state.documents, d, func(d *domain.Document) error { return d.Validate() })
}

func (tx *transaction) UpdateDocument(id string, mutator func(*domain.Document) error) (domain.Document, error) {
	return updateRow(tx, tx.state.documents, id, mutator, func(_ domain.Document, after *domain.Document) error {
		return after.Validate()
	})
}

// DeleteDocument removes a document with its tag and entity links.
func (tx *transaction) DeleteDocument(id string) error {
	if !tx.state.documents.has(id) {
		return domain.NotFound(domain.EntityDocument, id)
	}
	tx.cascadeDeleteDocument(id)
	tx.state.documents.drop(tx, id)
	return nil
}

// checkDocumentTag enforces case-insensitive unique tag names.
func (tx *transaction) checkDocumentTag(t *domain.DocumentTag) error {
	t.Name = strings.TrimSpace(t.Name)
	if err := t.Validate(); err != nil {
		return err
	}
	for _, id := range tx.state.documentTags.sortedIDs() {
		other, _ := tx.state.documentTags.get(id)
		if id != t.ID && strings.EqualFold(other.Name, t.Name) {
			return domain.NewValidationError(domain.EntityDocumentTag, "name", "tag %q already exists", other.Name)
		}
	}
	return nil
}

func (tx *transaction) CreateDocumentTag(t domain.DocumentTag) (domain.DocumentTag, error) {
	return createRow(tx, tx.state.documentTags, t, tx.checkDocumentTag)
}

func (tx *transaction) UpdateDocumentTag(id string, mutator func(*domain.DocumentTag) error) (domain.DocumentTag, error) {
	return updateRow(tx, tx.state.documentTags, id, mutator, func(_ domain.DocumentTag, after *domain.DocumentTag) error {
		return tx.checkDocumentTag(after)
	})
}

// DeleteDocumentTag removes a tag from every document and deletes it.
func (tx *transaction) DeleteDocumentTag(id string) error {
	if !tx.state.documentTags.has(id) {
		return domain.NotFound(domain.EntityDocumentTag, id)
	}
	tx.cascadeDeleteDocumentTag(id)
	tx.state.documentTags.drop(tx, id)
	return nil
}

// TagDocument applies a tag to a document. Tagging twice returns the
// existing link.
func (tx *transaction) TagDocument(documentID, tagID string) (domain.DocumentTagLink, error) {
	if _, err := requireRef(tx.state.documents, domain.EntityDocumentTagLink, "document_id", documentID); err != nil {
		return domain.DocumentTagLink{}, err
	}
	if _, err := requireRef(tx.state.documentTags, domain.EntityDocumentTagLink, "tag_id", tagID); err != nil {
		return domain.DocumentTagLink{}, err
	}
	for _, link := range tx.state.tagLinks.rowsBy(domain.ByDocument, documentID) {
		if link.TagID == tagID {
			return link, nil
		}
	}
	return createRow(tx, tx.state.tagLinks, domain.DocumentTagLink{DocumentID: documentID, TagID: tagID}, nil)
}

func (tx *transaction) UntagDocument(documentID, tagID string) error {
	for _, link := range tx.state.tagLinks.rowsBy(domain.ByDocument, documentID) {
		if link.TagID == tagID {
			tx.state.tagLinks.drop(tx, link.ID)
			return nil
		}
	}
	return domain.NotFound(domain.EntityDocumentTagLink, documentID+"/"+tagID)
}

// LinkDocument attaches a document to a dog, litter or expense and returns
// the link id. Linking twice returns the existing link.
func (tx *transaction) LinkDocument(documentID string, entity domain.EntityType, entityID string) (string, error) {
	if _, err := requireRef(tx.state.documents, entity, "document_id", documentID); err != nil {
		return "", err
	}
	switch entity {
	case domain.EntityDog:
		if _, err := requireRef(tx.state.dogs, domain.EntityDogDocument, "dog_id", entityID); err != nil {
			return "", err
		}
		for _, link := range tx.state.dogDocuments.rowsBy(domain.ByDocument, documentID) {
			if link.DogID == entityID {
				return link.ID, nil
			}
		}
		link, err := createRow(tx, tx.state.dogDocuments, domain.DogDocument{DocumentID: documentID, DogID: entityID}, nil)
		return link.ID, err
	case domain.EntityLitter:
		if _, err := requireRef(tx.state.litters, domain.EntityLitterDocument, "litter_id", entityID); err != nil {
			return "", err
		}
		for _, link := range tx.state.litterDocuments.rowsBy(domain.ByDocument, documentID) {
			if link.LitterID == entityID {
				return link.ID, nil
			}
		}
		link, err := createRow(tx, tx.state.litterDocuments, domain.LitterDocument{DocumentID: documentID, LitterID: entityID}, nil)
		return link.ID, err
	case domain.EntityExpense:
		if _, err := requireRef(tx.state.expenses, domain.EntityExpenseDocument, "expense_id", entityID); err != nil {
			return "", err
		}
		for _, link := range tx.state.expenseDocuments.rowsBy(domain.ByDocument, documentID) {
			if link.ExpenseID == entityID {
				return link.ID, nil
			}
		}
		link, err := createRow(tx, tx.state.expenseDocuments, domain.ExpenseDocument{DocumentID: documentID, ExpenseID: entityID}, nil)
		return link.ID, err
	}
	return "", domain.NewValidationError(domain.EntityDocument, "entity", "documents cannot be linked to %s", entity)
}

// UnlinkDocument removes a document link.
func (tx *transaction) UnlinkDocument(documentID string, entity domain.EntityType, entityID string) error {
	switch entity {
	case domain.EntityDog:
		for _, link := range tx.state.dogDocuments.rowsBy(domain.ByDocument, documentID) {
			if link.DogID == entityID {
				tx.state.dogDocuments.drop(tx, link.ID)
				return nil
			}
		}
		return domain.NotFound(domain.EntityDogDocument, documentID+"/"+entityID)
	case domain.EntityLitter:
		for _, link := range tx.state.litterDocuments.rowsBy(domain.ByDocument, documentID) {
			if link.LitterID == entityID {
				tx.state.litterDocuments.drop(tx, link.ID)
				return nil
			}
		}
		return domain.NotFound(domain.EntityLitterDocument, documentID+"/"+entityID)
	case domain.EntityExpense:
		for _, link := range tx.state.expenseDocuments.rowsBy(domain.ByDocument, documentID) {
			if link.ExpenseID == entityID {
				tx.state.expenseDocuments.drop(tx, link.ID)
				return nil
			}
		}
		return domain.NotFound(domain.EntityExpenseDocument, documentID+"/"+entityID)
	}
	return domain.NewValidationError(domain.EntityDocument, "entity", "documents cannot be linked to %s", entity)
}
