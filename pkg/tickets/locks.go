package tickets

import "sync"

// keyedMutex serialises work that shares a key. Unused keys are dropped.
type keyedMutex struct {
	mut   sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	sync.Mutex
	refs int
}

// lock blocks until key is free and returns the function that frees it.
func (k *keyedMutex) lock(key string) (unlock func()) {
	k.mut.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyedLock)
	}
	l, ok := k.locks[key]
	if !ok {
		l = new(keyedLock)
		k.locks[key] = l
	}
	l.refs++
	k.mut.Unlock()

	l.Lock()
	return func() {
		l.Unlock()

		k.mut.Lock()
		defer k.mut.Unlock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
	}
}

func ticketKey(channelID string) string {
	return "ticket:" + channelID
}

func creatorKey(userID string) string {
	return "creator:" + userID
}

func panelKey(guildID string) string {
	return "panel:" + guildID
}
