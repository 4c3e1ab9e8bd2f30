package logic

import "folio/internal/domain"

// DocumentStore provides access to loaded documents and their pages
type DocumentStore interface {
	GetDocument(key domain.FileKey) *domain.Document
	GetAllDocuments() map[domain.FileKey]*domain.Document
	GetOrderedKeys() []domain.FileKey
	GetPage(key domain.FileKey, page int) *domain.Page
	AddDocument(doc *domain.Document)
	AddPage(page *domain.Page)
	RemoveDocument(key domain.FileKey)
}
