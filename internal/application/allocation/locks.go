package allocation

import "sync"

// KeyedMutex serializa las operaciones de asignación por unidad de
// inventario: un solo escritor por unidad dentro del proceso. La guarda
// autoritativa sigue siendo la escritura condicionada por versión en la base;
// el mutex evita que dos llamadas del mismo proceso quemen versiones entre sí.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

// NewKeyedMutex construye el mapa de cerrojos.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*entry)}
}

// Lock toma el cerrojo de la clave y devuelve la función que lo libera.
func (k *KeyedMutex) Lock(key string) func() {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &entry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
