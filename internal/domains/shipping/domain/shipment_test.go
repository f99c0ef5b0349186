package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrackingURL_PrefersProviderURL(t *testing.T) {
	url := TrackingURL("https://provider.example/t/abc", "ups", "1Z999AA10123456784")
	require.Equal(t, "https://provider.example/t/abc", url)
}

func TestTrackingURL_CarrierTemplates(t *testing.T) {
	cases := []struct {
		carrier string
		want    string
	}{
		{"ups", "https://www.ups.com/track?loc=en_US&tracknum=TN-1"},
		{"UPS", "https://www.ups.com/track?loc=en_US&tracknum=TN-1"},
		{"usps", "https://tools.usps.com/go/TrackConfirmAction?tLabels=TN-1"},
		{"fedex", "https://www.fedex.com/fedextrack/?trknbr=TN-1"},
		{"dhl", "https://www.dhl.com/en/express/tracking.html?AWB=TN-1"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, TrackingURL("", tc.carrier, "TN-1"), "carrier %q", tc.carrier)
	}
}

func TestTrackingURL_TotalForAnyCarrier(t *testing.T) {
	for _, carrier := range []string{"", "pigeon-post", "UPS ", "carrier with spaces", "???"} {
		url := TrackingURL("", carrier, "TN-42")
		require.NotEmpty(t, url, "carrier %q", carrier)
	}
	require.Equal(t, "https://track.goshippo.com/TN-42", TrackingURL("", "pigeon-post", "TN-42"))
}

func TestTrackingURL_EmptyWithoutTrackingNumber(t *testing.T) {
	require.Empty(t, TrackingURL("", "ups", ""))
}

func TestTransactionTerminal(t *testing.T) {
	require.False(t, Transaction{Status: TransactionQueued}.Terminal())
	require.True(t, Transaction{Status: TransactionSuccess}.Terminal())
	require.True(t, Transaction{Status: TransactionError}.Terminal())
}
