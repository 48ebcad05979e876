// Package embedded registers every built-in corpus format. Import it for its
// side effects before calling the formats registry.
package embedded

import (
	_ "github.com/FocuswithJustin/JuniperSearch/internal/formats/bolt"
	_ "github.com/FocuswithJustin/JuniperSearch/internal/formats/json"
	_ "github.com/FocuswithJustin/JuniperSearch/internal/formats/sqlite"
	_ "github.com/FocuswithJustin/JuniperSearch/internal/formats/zefania"
)
