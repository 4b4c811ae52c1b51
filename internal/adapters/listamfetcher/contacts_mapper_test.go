package listamfetcher

import (
	"testing"

	"listam-parser-service/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractContactsChannelsAreNotCrossDeduplicated(t *testing.T) {
	popup := `<div class="popup">
		<div class="name">Aram</div>
		<a href="tel:+37491123456"><span>(091) 12-34-56</span></a>
		<a href="https://wa.me/37491123456">WhatsApp</a>
	</div>`

	info, err := ExtractContacts([]byte(popup))
	require.NoError(t, err)

	require.NotNil(t, info.SellerName)
	assert.Equal(t, "Aram", *info.SellerName)
	require.Len(t, info.Phones, 2)
	assert.Equal(t, domain.ContactPhone{Raw: "+37491123456", Display: "(091) 12-34-56", Source: domain.PhoneSourceDirect}, info.Phones[0])
	assert.Equal(t, domain.ContactPhone{Raw: "37491123456", Display: "WhatsApp", Source: domain.PhoneSourceWhatsApp}, info.Phones[1])
}

func TestExtractContactsRepeatsWithinChannelCollapse(t *testing.T) {
	popup := `<div>
		<a href="tel:+37491123456"><span>first</span></a>
		<a href="tel:+374 91 123 456"><span>second</span></a>
	</div>`

	info, err := ExtractContacts([]byte(popup))
	require.NoError(t, err)
	require.Len(t, info.Phones, 1)
	assert.Equal(t, "first", info.Phones[0].Display)
	assert.Nil(t, info.SellerName)
}

func TestExtractContactsScanOrderAndFallbacks(t *testing.T) {
	popup := `<div>
		<a href="https://wa.me/37455000000?text=hi"></a>
		<a href="viber://chat?number=%2B37455000000">Viber</a>
		<a href="tel:055000000"></a>
		<a href="tel:"></a>
	</div>`

	info, err := ExtractContacts([]byte(popup))
	require.NoError(t, err)
	require.Len(t, info.Phones, 3)

	assert.Equal(t, domain.PhoneSourceDirect, info.Phones[0].Source)
	assert.Equal(t, "055000000", info.Phones[0].Raw)
	assert.Equal(t, "055000000", info.Phones[0].Display, "display falls back to raw number")

	assert.Equal(t, domain.PhoneSourceViber, info.Phones[1].Source)
	assert.Equal(t, "37455000000", info.Phones[1].Raw, "leading plus is stripped")

	assert.Equal(t, domain.PhoneSourceWhatsApp, info.Phones[2].Source)
	assert.Equal(t, "37455000000", info.Phones[2].Raw)
	assert.Equal(t, "37455000000", info.Phones[2].Display)
}

func TestExtractContactsEmptyPopup(t *testing.T) {
	info, err := ExtractContacts(nil)
	require.NoError(t, err)
	assert.Empty(t, info.Phones)

	info, err = ExtractContacts([]byte("<div>No phone shown</div>"))
	require.NoError(t, err)
	assert.Empty(t, info.Phones)
}
