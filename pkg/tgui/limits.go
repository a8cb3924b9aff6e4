package tgui

// MaxCallbackDataLen is Telegram's callback_data size limit in bytes.
// It covers the full string: "prefix:action:payload".
const MaxCallbackDataLen = 64
