// Package all registers every provider bundled with the factory. Import it
// for its side effects:
//
//	import _ "github.com/wanmail/selenium-client-factory/all"
//
// The http: provider lives in the factory package itself and is always
// registered.
package all

import (
	// Provider packages register themselves in init.
	_ "github.com/wanmail/selenium-client-factory/embedded"
	_ "github.com/wanmail/selenium-client-factory/sauce"
	_ "github.com/wanmail/selenium-client-factory/htmlunit"
	_ "github.com/wanmail/selenium-client-factory/logging"
)
