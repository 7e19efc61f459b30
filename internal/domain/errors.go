package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound      = errors.New("recurso no encontrado")
	ErrInvalidInput  = errors.New("entrada inválida")
	ErrUnauthorized  = errors.New("no autorizado")
	ErrForbidden     = errors.New("acceso denegado")
	ErrConflict      = errors.New("conflicto con el estado actual")
	ErrNoRecipeItems = errors.New("la receta no tiene ingredientes")

	// ErrRetrieval: una lectura del almacén falló (red, auth o consulta).
	// Distinto de "sin datos": nunca se sustituye por un valor por defecto.
	ErrRetrieval = errors.New("error de lectura en el almacén")
	// ErrPersistence: una escritura falló. No hay reintento automático.
	ErrPersistence = errors.New("error de escritura en el almacén")
)

// RetrievalError envuelve err como ErrRetrieval conservando la causa original.
// errors.Is funciona contra ambos.
func RetrievalError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &storeError{kind: ErrRetrieval, op: op, err: err}
}

// PersistenceError envuelve err como ErrPersistence conservando la causa original.
func PersistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &storeError{kind: ErrPersistence, op: op, err: err}
}

type storeError struct {
	kind error
	op   string
	err  error
}

func (e *storeError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.kind, e.op, e.err)
}

func (e *storeError) Unwrap() []error {
	return []error{e.kind, e.err}
}
