package listener

import "github.com/shaiso/Courier/internal/broker"

// ResolveAdmin выбирает администратора для контейнера.
//
// Правила:
//   - injected != nil — используется он, available не просматривается
//   - fatal=true: среди available должен быть ровно один,
//     иначе ошибка KindConfiguration с *AdminCountError (found: N)
//   - fatal=false: единственный из available или nil
//
// Функция детерминирована и не обращается к брокеру.
func ResolveAdmin(container string, fatal bool, injected broker.Admin, available []broker.Admin) (broker.Admin, error) {
	if injected != nil {
		return injected, nil
	}

	if len(available) == 1 {
		return available[0], nil
	}

	if fatal {
		return nil, newError(KindConfiguration, container, &AdminCountError{Found: len(available)})
	}

	return nil, nil
}
