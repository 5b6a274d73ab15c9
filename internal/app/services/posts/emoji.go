package posts

// Emoji classification for content validation. Go's unicode tables do not
// expose the Extended_Pictographic property, so the accepted ranges are
// maintained here: pictographic blocks plus the component code points that
// legal emoji sequences are built from (ZWJ, variation selectors, skin-tone
// modifiers, regional indicators, keycap marks, tag characters).

type runeRange struct{ lo, hi rune }

var pictographicRanges = []runeRange{
	{0x00A9, 0x00A9},   // copyright
	{0x00AE, 0x00AE},   // registered
	{0x203C, 0x203C},   // double exclamation
	{0x2049, 0x2049},   // exclamation question
	{0x2122, 0x2122},   // trade mark
	{0x2139, 0x2139},   // information
	{0x2194, 0x2199},   // arrows with emoji presentation
	{0x21A9, 0x21AA},   // hooked arrows
	{0x231A, 0x231B},   // watch, hourglass
	{0x2328, 0x2328},   // keyboard
	{0x23CF, 0x23CF},   // eject
	{0x23E9, 0x23F3},   // media controls, timers
	{0x23F8, 0x23FA},   // pause, stop, record
	{0x24C2, 0x24C2},   // circled M
	{0x25AA, 0x25AB},   // small squares
	{0x25B6, 0x25B6},   // play
	{0x25C0, 0x25C0},   // reverse
	{0x25FB, 0x25FE},   // medium squares
	{0x2600, 0x27BF},   // miscellaneous symbols, dingbats
	{0x2B05, 0x2B07},   // cardinal arrows
	{0x2B1B, 0x2B1C},   // large squares
	{0x2B50, 0x2B50},   // star
	{0x2B55, 0x2B55},   // hollow red circle
	{0x3030, 0x3030},   // wavy dash
	{0x303D, 0x303D},   // part alternation mark
	{0x3297, 0x3297},   // circled congratulations
	{0x3299, 0x3299},   // circled secret
	{0x1F000, 0x1F0FF}, // mahjong, dominoes, playing cards
	{0x1F100, 0x1F2FF}, // enclosed alphanumerics and ideographs
	{0x1F300, 0x1FAFF}, // the main emoji blocks
}

var componentRanges = []runeRange{
	{'#', '#'},
	{'*', '*'},
	{'0', '9'},
	{0x200D, 0x200D},   // zero width joiner
	{0x20E3, 0x20E3},   // combining keycap
	{0xFE0E, 0xFE0F},   // variation selectors
	{0x1F1E6, 0x1F1FF}, // regional indicators
	{0x1F3FB, 0x1F3FF}, // skin tone modifiers
	{0xE0020, 0xE007F}, // tag characters (subdivision flags)
}

func inRanges(r rune, ranges []runeRange) bool {
	for _, rr := range ranges {
		if r >= rr.lo && r <= rr.hi {
			return true
		}
	}
	return false
}

// isEmojiRune reports whether r may appear in emoji-only content.
func isEmojiRune(r rune) bool {
	return inRanges(r, pictographicRanges) || inRanges(r, componentRanges)
}

// isEmojiOnly reports whether every rune of s is an emoji rune. The empty
// string is not emoji-only.
func isEmojiOnly(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !isEmojiRune(r) {
			return false
		}
	}
	return true
}
