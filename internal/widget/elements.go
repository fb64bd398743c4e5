package widget

import "sync"

// TextField is the input the handler reads when it is activated.
type TextField interface {
	Value() string
}

// OutputRegion is the element whose content each lookup overwrites.
type OutputRegion interface {
	SetHTML(fragment string)
}

// Notifier shows a blocking notice to the user.
type Notifier interface {
	Alert(message string)
}

// Trigger is the activation control the handler binds to.
type Trigger interface {
	OnActivate(fn func())
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

func (f NotifierFunc) Alert(message string) { f(message) }

// Field is an in-memory TextField.
type Field struct {
	mu    sync.Mutex
	value string
}

func (f *Field) Set(value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.value = value
}

func (f *Field) Value() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

// Region is an in-memory OutputRegion. OnChange, when set, is called with
// every new fragment after it is stored.
type Region struct {
	OnChange func(fragment string)

	mu     sync.Mutex
	html   string
	writes int
}

func (r *Region) SetHTML(fragment string) {
	r.mu.Lock()
	r.html = fragment
	r.writes++
	onChange := r.OnChange
	r.mu.Unlock()
	if onChange != nil {
		onChange(fragment)
	}
}

// HTML returns the current content.
func (r *Region) HTML() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.html
}

// Writes counts overwrites since creation.
func (r *Region) Writes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writes
}

// Button is an in-memory Trigger. Click runs every bound callback in order.
type Button struct {
	mu        sync.Mutex
	callbacks []func()
}

func (b *Button) OnActivate(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.callbacks = append(b.callbacks, fn)
}

func (b *Button) Click() {
	b.mu.Lock()
	callbacks := append([]func(){}, b.callbacks...)
	b.mu.Unlock()
	for _, fn := range callbacks {
		fn()
	}
}
