package rc

// Command names understood by the /selenium-server/driver/ endpoint.
const (
	CmdGetNewBrowserSession    = "getNewBrowserSession"
	CmdTestComplete            = "testComplete"
	CmdOpen                    = "open"
	CmdClick                   = "click"
	CmdDoubleClick             = "doubleClick"
	CmdType                    = "type"
	CmdSelect                  = "select"
	CmdCheck                   = "check"
	CmdUncheck                 = "uncheck"
	CmdSubmit                  = "submit"
	CmdGoBack                  = "goBack"
	CmdRefresh                 = "refresh"
	CmdGetTitle                = "getTitle"
	CmdGetLocation             = "getLocation"
	CmdGetBodyText             = "getBodyText"
	CmdGetHTMLSource           = "getHtmlSource"
	CmdGetText                 = "getText"
	CmdGetValue                = "getValue"
	CmdGetAttribute            = "getAttribute"
	CmdIsElementPresent        = "isElementPresent"
	CmdIsTextPresent           = "isTextPresent"
	CmdIsChecked               = "isChecked"
	CmdWaitForPageToLoad       = "waitForPageToLoad"
	CmdSetTimeout              = "setTimeout"
	CmdGetEval                 = "getEval"
	CmdCaptureScreenshotToStr  = "captureScreenshotToString"
	CmdCreateCookie            = "createCookie"
	CmdGetCookie               = "getCookie"
	CmdDeleteAllVisibleCookies = "deleteAllVisibleCookies"
	CmdSetContext              = "setContext"
)
