package main

import (
	"context"
	"errors"
)

// BookIDLength is the exact size of a book identifier. It is
// the hexadecimal form of a 12 bytes document ObjectID.
const BookIDLength = 24

var (
	ErrBookNotFound  = errors.New("book not found")
	ErrBookExists    = errors.New("book already exists")
	ErrInvalidBookID = errors.New("book id is not a valid object id")
)

// Book represents a book entity.
type Book struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
	Author   string  `json:"author"`
}

// BookStorage defines possible operations on book entity. Add sets
// the store-assigned identifier on the provided book. Update and
// Delete expect the caller to check the existence of the record.
type BookStorage interface {
	Add(ctx context.Context, book *Book) error
	GetOne(ctx context.Context, id string) (Book, error)
	Delete(ctx context.Context, id string) error
	Update(ctx context.Context, id string, book Book) error
	GetAll(ctx context.Context) ([]Book, error)
}
